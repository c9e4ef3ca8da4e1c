package powerup

import (
	"fmt"
	"math/rand"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// MostLetters returns the non-eliminated player holding the most letters,
// first in roster order on ties, or nil when nobody is left.
func MostLetters(state *domain.GameState) *domain.Player {
	var best *domain.Player
	for i := range state.Players {
		p := &state.Players[i]
		if p.IsEliminated {
			continue
		}
		if best == nil || p.Letters > best.Letters {
			best = p
		}
	}
	return best
}

// Grant rolls the comeback grant: with the configured chance, a random
// power-up goes to the active player with the most letters, unless that
// player already holds MaxPerType of the rolled type.
func Grant(state *domain.GameState, rng *rand.Rand) (domain.PowerUp, bool) {
	if state.Status != domain.StatusActive {
		return domain.PowerUp{}, false
	}
	if rng.Float64() >= state.Settings.PowerUpGrantChance {
		return domain.PowerUp{}, false
	}
	p := MostLetters(state)
	if p == nil {
		return domain.PowerUp{}, false
	}
	t := domain.PowerUpTypes[rng.Intn(len(domain.PowerUpTypes))]
	if p.CountPowerUps(t) >= MaxPerType {
		return domain.PowerUp{}, false
	}
	pu := New(t)
	p.PowerUps = append(p.PowerUps, pu)
	state.AddEvent(fmt.Sprintf("%s received a %s power-up", p.Name, Label(t)))
	return pu, true
}

// Label returns a display name for a power-up type
func Label(t domain.PowerUpType) string {
	switch t {
	case domain.PowerUpShield:
		return "Shield"
	case domain.PowerUpChooseTrick:
		return "Choose Trick"
	}
	return string(t)
}

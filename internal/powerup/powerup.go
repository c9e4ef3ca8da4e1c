// Package powerup defines power-up instances, their effects on game state and
// the chance-based comeback grant.
package powerup

import (
	"github.com/google/uuid"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

const (
	// MaxPerType caps how many instances of one type a grant can top a player up to
	MaxPerType = 2
	// ChooseTrickOptions is the number of tricks offered by Choose Trick
	ChooseTrickOptions = 3
)

// New creates a power-up instance with a fresh id
func New(t domain.PowerUpType) domain.PowerUp {
	return domain.PowerUp{
		InstanceID: uuid.New().String(),
		Type:       t,
	}
}

// StartingInventory returns one instance of every power-up type
func StartingInventory() []domain.PowerUp {
	out := make([]domain.PowerUp, 0, len(domain.PowerUpTypes))
	for _, t := range domain.PowerUpTypes {
		out = append(out, New(t))
	}
	return out
}

// Take removes one instance of t from the player's inventory
func Take(p *domain.Player, t domain.PowerUpType) bool {
	for i, pu := range p.PowerUps {
		if pu.Type == t {
			p.PowerUps = append(p.PowerUps[:i:i], p.PowerUps[i+1:]...)
			return true
		}
	}
	return false
}

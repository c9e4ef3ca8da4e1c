package powerup

import (
	"fmt"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// Deck is the part of the deck manager the effects need
type Deck interface {
	Peek(n int) []domain.Trick
	Select(id int) (domain.Trick, error)
	Discard(t domain.Trick)
}

// Outcome tells the controller what follow-up an effect requires
type Outcome struct {
	// PassTurn moves the turn to the next player without a trick attempt.
	PassTurn bool
	// NewTrick means the current trick was replaced.
	NewTrick bool
}

// Effect applies a power-up for playerID. selected is the chosen trick id, if any.
type Effect func(state *domain.GameState, d Deck, playerID int, selected *int) (Outcome, error)

var effects = map[domain.PowerUpType]Effect{
	domain.PowerUpShield:      shield,
	domain.PowerUpChooseTrick: chooseTrick,
}

// Apply dispatches to the effect registered for t
func Apply(state *domain.GameState, d Deck, playerID int, t domain.PowerUpType, selected *int) (Outcome, error) {
	effect, ok := effects[t]
	if !ok {
		return Outcome{}, domain.ErrPowerUpNotHeld
	}
	return effect(state, d, playerID, selected)
}

// shield arms miss protection. Used by the current player it also passes the turn.
func shield(state *domain.GameState, _ Deck, playerID int, _ *int) (Outcome, error) {
	p := state.Player(playerID)
	if p == nil || p.IsEliminated || !Take(p, domain.PowerUpShield) {
		return Outcome{}, domain.ErrPowerUpNotHeld
	}
	p.ShieldActive = true
	state.AddEvent(fmt.Sprintf("%s raised a shield", p.Name))
	return Outcome{PassTurn: state.CurrentPlayerID == playerID}, nil
}

// chooseTrick reveals the next tricks and, once one is selected, makes it current.
// Unchosen options go back to the front of the draw pile.
func chooseTrick(state *domain.GameState, d Deck, playerID int, selected *int) (Outcome, error) {
	p := state.Player(playerID)
	if p == nil || p.IsEliminated {
		return Outcome{}, domain.ErrPowerUpNotHeld
	}

	pending := len(state.PendingTrickOptions) > 0 && state.PendingChooserID == playerID
	if !pending {
		if !Take(p, domain.PowerUpChooseTrick) {
			return Outcome{}, domain.ErrPowerUpNotHeld
		}
		options := d.Peek(ChooseTrickOptions)
		if len(options) == 0 {
			return Outcome{}, domain.ErrDeckExhausted
		}
		state.PendingTrickOptions = options
		state.PendingChooserID = playerID
		state.AddEvent(fmt.Sprintf("%s is choosing the next trick", p.Name))
	}
	if selected == nil {
		return Outcome{}, nil
	}

	chosen, err := d.Select(*selected)
	if err != nil {
		return Outcome{}, err
	}
	if state.CurrentTrick != nil {
		d.Discard(*state.CurrentTrick)
	}
	state.CurrentTrick = &chosen
	state.PendingTrickOptions = nil
	state.PendingChooserID = 0
	state.AddEvent(fmt.Sprintf("%s chose %s", p.Name, chosen.Name))
	return Outcome{NewTrick: true}, nil
}

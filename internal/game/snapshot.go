package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/ensured/skate-deck-sub000/internal/deck"
	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/roster"
)

// Snapshot returns the serializable engine state
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Snapshot{
		Version:   domain.SnapshotVersion,
		GameState: *e.state.Clone(),
		DeckState: e.deck.State(),
		SavedAt:   time.Now().UTC(),
	}
}

// Restore rebuilds an engine from a snapshot. Any inconsistency rejects the
// whole snapshot; nothing is partially applied.
func Restore(snap domain.Snapshot, catalog []domain.Trick, opts Options) (*Engine, error) {
	if snap.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidSnapshot, snap.Version)
	}
	e := newEngine(catalog, opts)

	state := snap.GameState.Clone()
	if err := validateState(state, e.catalog, e.maxPlayers); err != nil {
		return nil, err
	}
	d, err := deck.Restore(snap.DeckState, e.catalog, e.rng)
	if err != nil {
		return nil, err
	}
	if err := validateDeck(state, snap.DeckState, len(e.catalog)); err != nil {
		return nil, err
	}

	e.state = state
	e.deck = d
	return e, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}

// validateState checks the game state invariants and swaps trick copies for
// the catalog definitions
func validateState(s *domain.GameState, catalog []domain.Trick, maxPlayers int) error {
	settings, err := ValidateSettings(s.Settings)
	if err != nil {
		return invalid("settings: %v", err)
	}
	s.Settings = settings

	switch s.Status {
	case domain.StatusLobby, domain.StatusActive, domain.StatusEnded:
	default:
		return invalid("unknown status %q", s.Status)
	}
	if s.Round < 1 || s.TurnsThisRound < 0 || s.LeaderConsecutiveLands < 0 {
		return invalid("negative counters")
	}
	if len(s.Players) > maxPlayers {
		return invalid("%d players exceeds the roster cap", len(s.Players))
	}

	if err := validatePlayers(s); err != nil {
		return err
	}

	known := make(map[int]domain.Trick, len(catalog))
	for _, t := range catalog {
		known[t.ID] = t
	}
	if s.CurrentTrick != nil {
		t, ok := known[s.CurrentTrick.ID]
		if !ok {
			return invalid("current trick %d is not in the catalog", s.CurrentTrick.ID)
		}
		s.CurrentTrick = &t
	}
	for i, opt := range s.PendingTrickOptions {
		t, ok := known[opt.ID]
		if !ok {
			return invalid("pending option %d is not in the catalog", opt.ID)
		}
		s.PendingTrickOptions[i] = t
	}

	if s.CurrentPlayerID != 0 && s.Player(s.CurrentPlayerID) == nil {
		return invalid("current player %d does not exist", s.CurrentPlayerID)
	}
	if s.CurrentLeaderID != 0 && s.Player(s.CurrentLeaderID) == nil {
		return invalid("leader %d does not exist", s.CurrentLeaderID)
	}
	for _, p := range s.Players {
		if p.IsLeader != (p.ID == s.CurrentLeaderID) {
			return invalid("leader flags disagree with leader %d", s.CurrentLeaderID)
		}
	}

	switch s.Status {
	case domain.StatusLobby:
		return validateLobby(s)
	case domain.StatusActive:
		return validateActive(s)
	case domain.StatusEnded:
		return validateEnded(s)
	}
	return nil
}

// validateLobby requires a clean roster led by the creator, since starting
// the game does not reset letters
func validateLobby(s *domain.GameState) error {
	if s.CurrentTrick != nil || s.WinnerID != nil || len(s.PendingTrickOptions) > 0 {
		return invalid("lobby carries game progress")
	}
	for _, p := range s.Players {
		if p.Letters != 0 || p.IsEliminated || p.ShieldActive {
			return invalid("lobby player %d carries game progress", p.ID)
		}
	}
	want := 0
	if c := roster.Creator(s); c != nil {
		want = c.ID
	}
	if s.CurrentLeaderID != want || s.CurrentPlayerID != want {
		return invalid("lobby must be led by the creator")
	}
	return nil
}

func validateEnded(s *domain.GameState) error {
	if s.ActiveCount() != 1 {
		return invalid("ended game with %d players left", s.ActiveCount())
	}
	if s.WinnerID == nil {
		return invalid("ended game without a winner")
	}
	if *s.WinnerID != roster.FirstActive(s) {
		return invalid("winner %d is not the last player standing", *s.WinnerID)
	}
	if s.CurrentLeaderID != *s.WinnerID {
		return invalid("leader %d is not the winner", s.CurrentLeaderID)
	}
	if len(s.PendingTrickOptions) > 0 {
		return invalid("ended game with pending options")
	}
	return nil
}

func validatePlayers(s *domain.GameState) error {
	ids := make(map[int]bool, len(s.Players))
	names := make(map[string]bool, len(s.Players))
	instances := make(map[string]bool)
	creators := 0

	for _, p := range s.Players {
		if p.ID <= 0 || p.ID >= s.NextPlayerID || ids[p.ID] {
			return invalid("bad player id %d", p.ID)
		}
		ids[p.ID] = true

		name, err := roster.ValidateName(p.Name)
		if err != nil || name != p.Name {
			return invalid("bad player name %q", p.Name)
		}
		if names[strings.ToLower(p.Name)] {
			return invalid("duplicate player name %q", p.Name)
		}
		names[strings.ToLower(p.Name)] = true

		if p.Letters < 0 || p.Letters > s.Settings.WordLength {
			return invalid("player %d has %d letters", p.ID, p.Letters)
		}
		if p.IsEliminated != (p.Letters >= s.Settings.WordLength) {
			return invalid("player %d elimination does not match letters", p.ID)
		}
		if p.Score < 0 {
			return invalid("player %d has a negative score", p.ID)
		}
		for _, pu := range p.PowerUps {
			if !pu.Type.Valid() || pu.InstanceID == "" || instances[pu.InstanceID] {
				return invalid("player %d has a bad power-up", p.ID)
			}
			instances[pu.InstanceID] = true
		}
		if p.IsCreator {
			creators++
		}
	}
	if len(s.Players) > 0 && creators != 1 {
		return invalid("expected one creator, found %d", creators)
	}
	return nil
}

func validateActive(s *domain.GameState) error {
	if s.ActiveCount() < 2 {
		return invalid("active game with fewer than two players left")
	}
	if s.CurrentTrick == nil {
		return invalid("active game without a current trick")
	}
	if p := s.Player(s.CurrentPlayerID); p == nil || p.IsEliminated {
		return invalid("current player %d is not an active player", s.CurrentPlayerID)
	}
	leader := s.Player(s.CurrentLeaderID)
	if leader == nil || leader.IsEliminated {
		return invalid("leader %d is not an active player", s.CurrentLeaderID)
	}
	if s.WinnerID != nil {
		return invalid("active game with a winner")
	}
	if len(s.PendingTrickOptions) > 0 {
		if p := s.Player(s.PendingChooserID); p == nil || p.IsEliminated {
			return invalid("pending options without a chooser")
		}
	}
	return nil
}

// validateDeck checks that every catalog trick is in exactly one place
func validateDeck(s *domain.GameState, d domain.DeckState, total int) error {
	count := len(d.DrawPile) + len(d.DiscardPile) + len(d.InView)
	if s.CurrentTrick != nil {
		for _, pile := range [][]int{d.DrawPile, d.DiscardPile, d.InView} {
			for _, id := range pile {
				if id == s.CurrentTrick.ID {
					return invalid("current trick %d is also in the deck", id)
				}
			}
		}
		count++
	}
	if count != total {
		return invalid("deck holds %d of %d tricks", count, total)
	}

	if len(s.PendingTrickOptions) == 0 {
		return nil
	}
	if len(s.PendingTrickOptions) != len(d.InView) {
		return invalid("pending options do not match the cards in view")
	}
	for i, opt := range s.PendingTrickOptions {
		if d.InView[i] != opt.ID {
			return invalid("pending options do not match the cards in view")
		}
	}
	return nil
}

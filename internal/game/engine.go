// Package game implements the turn and round state machine of a trick
// elimination game. Every exported Engine operation is an atomic transition:
// it runs on a copy of the state and deck and commits only on success.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ensured/skate-deck-sub000/internal/deck"
	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/powerup"
	"github.com/ensured/skate-deck-sub000/internal/roster"
)

// Options configures a new Engine
type Options struct {
	Settings   domain.Settings
	MaxPlayers int
	Rng        *rand.Rand
	Logger     *slog.Logger
}

// Engine owns the single game state and deck and serializes every mutation
type Engine struct {
	mu         sync.Mutex
	state      *domain.GameState
	deck       *deck.Deck
	catalog    []domain.Trick
	rng        *rand.Rand
	maxPlayers int
	logger     *slog.Logger
}

var wordPattern = regexp.MustCompile(`^[A-Z]{3,10}$`)

// ValidateSettings checks settings and fills in the word length
func ValidateSettings(s domain.Settings) (domain.Settings, error) {
	if s.Word == "" {
		s.Word = domain.DefaultWord
	}
	if !wordPattern.MatchString(s.Word) {
		return s, fmt.Errorf("%w: word must be 3-10 uppercase letters", domain.ErrInvalidRequest)
	}
	if s.WordLength == 0 {
		s.WordLength = len(s.Word)
	}
	if s.WordLength != len(s.Word) {
		return s, fmt.Errorf("%w: word length %d does not match %q", domain.ErrInvalidRequest, s.WordLength, s.Word)
	}
	if s.PowerUpGrantChance < 0 || s.PowerUpGrantChance > 1 {
		return s, fmt.Errorf("%w: power-up grant chance must be in [0,1]", domain.ErrInvalidRequest)
	}
	return s, nil
}

// New creates an engine in the lobby with a freshly shuffled deck
func New(catalog []domain.Trick, opts Options) (*Engine, error) {
	settings, err := ValidateSettings(opts.Settings)
	if err != nil {
		return nil, err
	}
	e := newEngine(catalog, opts)
	e.state = newState(settings)
	e.deck = deck.New(e.catalog, e.rng)
	return e, nil
}

func newEngine(catalog []domain.Trick, opts Options) *Engine {
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxPlayers := opts.MaxPlayers
	if maxPlayers <= 0 || maxPlayers > domain.MaxPlayers {
		maxPlayers = domain.MaxPlayers
	}
	return &Engine{
		catalog:    append([]domain.Trick(nil), catalog...),
		rng:        rng,
		maxPlayers: maxPlayers,
		logger:     logger,
	}
}

func newState(settings domain.Settings) *domain.GameState {
	return &domain.GameState{
		GameID:       uuid.New().String(),
		Status:       domain.StatusLobby,
		Players:      []domain.Player{},
		Round:        1,
		EventLog:     []string{},
		Settings:     settings,
		NextPlayerID: 1,
	}
}

// transition is the working copy a single operation mutates
type transition struct {
	state      *domain.GameState
	deck       *deck.Deck
	catalog    []domain.Trick
	rng        *rand.Rand
	maxPlayers int
}

// mutate runs fn against a copy of the state and deck and commits on success
func (e *Engine) mutate(op string, fn func(t *transition) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := &transition{
		state:      e.state.Clone(),
		deck:       e.deck.Clone(),
		catalog:    e.catalog,
		rng:        e.rng,
		maxPlayers: e.maxPlayers,
	}
	if err := fn(t); err != nil {
		e.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}
	e.state, e.deck = t.state, t.deck

	e.logger.Debug("operation applied",
		"op", op,
		"status", e.state.Status,
		"round", e.state.Round,
		"current_player_id", e.state.CurrentPlayerID,
	)
	return nil
}

// AddPlayer adds a player to the lobby
func (e *Engine) AddPlayer(name string) (domain.Player, error) {
	var added domain.Player
	err := e.mutate("add_player", func(t *transition) error {
		p, err := roster.AddPlayer(t.state, name, t.maxPlayers)
		if err != nil {
			return err
		}
		added = p
		return nil
	})
	if err != nil {
		return domain.Player{}, err
	}
	return added, nil
}

// RemovePlayer removes a non-creator player from the lobby
func (e *Engine) RemovePlayer(id int) error {
	return e.mutate("remove_player", func(t *transition) error {
		return roster.RemovePlayer(t.state, id)
	})
}

// UpdatePlayerName renames a player in the lobby
func (e *Engine) UpdatePlayerName(id int, name string) error {
	return e.mutate("rename_player", func(t *transition) error {
		return roster.RenamePlayer(t.state, id, name)
	})
}

// StartGame moves a lobby with enough players into play
func (e *Engine) StartGame() error {
	return e.mutate("start_game", func(t *transition) error {
		return t.start()
	})
}

// SubmitTrickResult resolves the current player's attempt at the current trick
func (e *Engine) SubmitTrickResult(result domain.TrickResult) error {
	return e.mutate("submit_result", func(t *transition) error {
		if t.state.Status != domain.StatusActive {
			return domain.ErrGameNotActive
		}
		if !result.Valid() {
			return fmt.Errorf("%w: unknown trick result %q", domain.ErrInvalidRequest, result)
		}
		return t.submit(result)
	})
}

// ActivatePowerUp uses one of a player's power-ups. selectedTrickID picks one
// of the Choose Trick options.
func (e *Engine) ActivatePowerUp(playerID int, t domain.PowerUpType, selectedTrickID *int) error {
	return e.mutate("activate_power_up", func(tr *transition) error {
		if tr.state.Status != domain.StatusActive {
			return domain.ErrGameNotActive
		}
		if tr.state.Player(playerID) == nil {
			return domain.ErrPlayerNotFound
		}
		if !t.Valid() {
			return domain.ErrPowerUpNotHeld
		}
		out, err := powerup.Apply(tr.state, tr.deck, playerID, t, selectedTrickID)
		if err != nil {
			return err
		}
		if out.NewTrick {
			tr.state.TurnsThisRound = 0
		}
		if out.PassTurn {
			tr.passTurn()
		}
		return nil
	})
}

// PeekDeck returns up to n tricks from the top of the deck. The cards stay
// set aside until selected or until the next draw. While Choose Trick options
// are pending, those options are returned instead.
func (e *Engine) PeekDeck(n int) []domain.Trick {
	var out []domain.Trick
	_ = e.mutate("peek_deck", func(t *transition) error {
		if len(t.state.PendingTrickOptions) > 0 {
			out = t.deck.InView()
			if n < len(out) {
				out = out[:max(n, 0)]
			}
			return nil
		}
		out = t.deck.Peek(n)
		return nil
	})
	return out
}

// ResetPlayers keeps the roster, clears letters and scores and returns to the lobby
func (e *Engine) ResetPlayers() {
	_ = e.mutate("reset_players", func(t *transition) error {
		settings := t.state.Settings
		players := t.state.Players
		nextID := t.state.NextPlayerID

		t.state = newState(settings)
		t.state.Players = players
		t.state.NextPlayerID = nextID
		roster.Reset(t.state)
		t.deck.Initialize(t.catalog)
		t.state.AddEvent("Players reset, back to the lobby")
		return nil
	})
}

// NewGame clears everything, including the roster
func (e *Engine) NewGame() {
	_ = e.mutate("new_game", func(t *transition) error {
		t.state = newState(t.state.Settings)
		t.deck.Initialize(t.catalog)
		return nil
	})
}

// DeckStatus reports remaining and total cards
func (e *Engine) DeckStatus() domain.DeckStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deck.Status()
}

// State returns a copy of the current game state
func (e *Engine) State() *domain.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Catalog returns the tricks this engine was built with
func (e *Engine) Catalog() []domain.Trick {
	return append([]domain.Trick(nil), e.catalog...)
}

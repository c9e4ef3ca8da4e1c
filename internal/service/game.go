package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/game"
	"github.com/ensured/skate-deck-sub000/internal/identity"
)

// SnapshotStore persists the serialized engine state
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context) (domain.Snapshot, error)
}

// HistoryStore records finished games and serves checkpoints
type HistoryStore interface {
	RecordResult(ctx context.Context, result domain.GameResult) error
	ListResults(ctx context.Context, limit, offset int) ([]domain.GameResult, error)
	PlayerStats(ctx context.Context, name string) (*domain.PlayerStats, error)
	EventLog(ctx context.Context, gameID string) ([]string, error)
	LatestCheckpoint(ctx context.Context) ([]byte, error)
}

// Broadcaster pushes the current view to connected clients
type Broadcaster interface {
	BroadcastState(view domain.GameView)
}

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// GameService runs the single game engine and keeps persistence, history and
// connected clients in step with every committed transition.
type GameService struct {
	mu          sync.Mutex
	engine      *game.Engine
	store       SnapshotStore
	history     HistoryStore
	broadcaster Broadcaster
	users       identity.Provider
	logger      *slog.Logger

	// recorded is the id of the last game written to history
	recorded string
}

// NewGameService restores the last saved game, falling back to the latest
// checkpoint and then to a fresh lobby. store and history may be nil.
func NewGameService(
	ctx context.Context,
	catalog []domain.Trick,
	opts game.Options,
	store SnapshotStore,
	history HistoryStore,
	users identity.Provider,
	logger *slog.Logger,
) (*GameService, error) {
	if users == nil {
		users = identity.ContextProvider{}
	}
	s := &GameService{
		store:   store,
		history: history,
		users:   users,
		logger:  logger,
	}

	engine, err := s.restore(ctx, catalog, opts)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	// A game that was already over when saved is already in history.
	if st := engine.State(); st.Status == domain.StatusEnded {
		s.recorded = st.GameID
	}
	return s, nil
}

func (s *GameService) restore(ctx context.Context, catalog []domain.Trick, opts game.Options) (*game.Engine, error) {
	if snap, ok := s.loadSnapshot(ctx); ok {
		engine, err := game.Restore(snap, catalog, opts)
		if err == nil {
			s.logger.Info("restored saved game",
				"game_id", snap.GameState.GameID,
				"status", snap.GameState.Status,
				"round", snap.GameState.Round,
			)
			return engine, nil
		}
		s.logger.Warn("saved game rejected, starting a fresh lobby", "error", err)
	}

	engine, err := game.New(catalog, opts)
	if err != nil {
		return nil, fmt.Errorf("creating game engine: %w", err)
	}
	return engine, nil
}

// loadSnapshot reads the key-value snapshot, or the latest checkpoint when
// the key-value store is empty
func (s *GameService) loadSnapshot(ctx context.Context) (domain.Snapshot, bool) {
	if s.store != nil {
		snap, err := s.store.Load(ctx)
		switch {
		case err == nil:
			return snap, true
		case errors.Is(err, domain.ErrSnapshotNotFound):
		default:
			s.logger.Warn("failed to load saved game", "error", err)
			if errors.Is(err, domain.ErrInvalidSnapshot) {
				return domain.Snapshot{}, false
			}
		}
	}

	if s.history == nil {
		return domain.Snapshot{}, false
	}
	data, err := s.history.LatestCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			s.logger.Warn("failed to load checkpoint", "error", err)
		}
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("checkpoint is not a snapshot", "error", err)
		return domain.Snapshot{}, false
	}
	s.logger.Info("restoring from checkpoint", "game_id", snap.GameState.GameID)
	return snap, true
}

// SetBroadcaster sets the client broadcaster
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// run applies op and, when it commits, persists and broadcasts the new state.
// Persistence failures are logged; the transition itself has already happened.
func (s *GameService) run(ctx context.Context, op func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := op(); err != nil {
		return err
	}
	s.afterCommit(ctx)
	return nil
}

func (s *GameService) afterCommit(ctx context.Context) {
	snap := s.engine.Snapshot()

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			s.logger.Warn("failed to save game state", "game_id", snap.GameState.GameID, "error", err)
		}
	}

	state := snap.GameState
	if state.Status == domain.StatusEnded && s.recorded != state.GameID {
		s.recorded = state.GameID
		s.logger.Info("game ended", "game_id", state.GameID, "rounds", state.Round)
		if s.history != nil {
			if err := s.history.RecordResult(ctx, ResultFromState(&state, time.Now().UTC())); err != nil {
				s.logger.Warn("failed to record game result", "game_id", state.GameID, "error", err)
			}
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastState(domain.GameView{State: state, Deck: s.engine.DeckStatus()})
	}
}

// ResultFromState builds the history record of a finished game
func ResultFromState(state *domain.GameState, endedAt time.Time) domain.GameResult {
	res := domain.GameResult{
		GameID:   state.GameID,
		Word:     state.Settings.Word,
		Rounds:   state.Round,
		Players:  make([]domain.PlayerResult, 0, len(state.Players)),
		EventLog: append([]string(nil), state.EventLog...),
		EndedAt:  endedAt,
	}
	for _, p := range state.Players {
		winner := state.WinnerID != nil && *state.WinnerID == p.ID
		if winner {
			res.WinnerName = p.Name
		}
		res.Players = append(res.Players, domain.PlayerResult{
			PlayerID: p.ID,
			Name:     p.Name,
			Letters:  p.Letters,
			Score:    p.Score,
			Winner:   winner,
		})
	}
	return res
}

// AddPlayer adds a player to the lobby
func (s *GameService) AddPlayer(ctx context.Context, name string) (domain.Player, error) {
	var p domain.Player
	err := s.run(ctx, func() error {
		var err error
		p, err = s.engine.AddPlayer(name)
		return err
	})
	return p, err
}

// RemovePlayer removes a player from the lobby
func (s *GameService) RemovePlayer(ctx context.Context, id int) error {
	return s.run(ctx, func() error { return s.engine.RemovePlayer(id) })
}

// RenamePlayer renames a player in the lobby
func (s *GameService) RenamePlayer(ctx context.Context, id int, name string) error {
	return s.run(ctx, func() error { return s.engine.UpdatePlayerName(id, name) })
}

// StartGame starts the game
func (s *GameService) StartGame(ctx context.Context) error {
	return s.run(ctx, s.engine.StartGame)
}

// SubmitResult resolves the current attempt
func (s *GameService) SubmitResult(ctx context.Context, result domain.TrickResult) error {
	return s.run(ctx, func() error { return s.engine.SubmitTrickResult(result) })
}

// ActivatePowerUp uses a player's power-up
func (s *GameService) ActivatePowerUp(ctx context.Context, playerID int, t domain.PowerUpType, trickID *int) error {
	return s.run(ctx, func() error { return s.engine.ActivatePowerUp(playerID, t, trickID) })
}

// PeekDeck sets aside and returns up to n tricks from the top of the deck
func (s *GameService) PeekDeck(ctx context.Context, n int) []domain.Trick {
	var out []domain.Trick
	_ = s.run(ctx, func() error {
		out = s.engine.PeekDeck(n)
		return nil
	})
	return out
}

// ResetPlayers keeps the roster and returns to the lobby
func (s *GameService) ResetPlayers(ctx context.Context) {
	_ = s.run(ctx, func() error {
		s.engine.ResetPlayers()
		return nil
	})
}

// NewGame clears everything. A signed-in caller becomes the creator of the
// new lobby; guests get an empty one.
func (s *GameService) NewGame(ctx context.Context) {
	_ = s.run(ctx, func() error {
		s.engine.NewGame()
		user, ok := s.users.CurrentUser(ctx)
		if !ok {
			return nil
		}
		if _, err := s.engine.AddPlayer(user.DisplayName); err != nil {
			s.logger.Warn("could not seat signed-in user as creator", "user_id", user.ID, "error", err)
		}
		return nil
	})
}

// View returns the current state and deck status
func (s *GameService) View() domain.GameView {
	return domain.GameView{State: *s.engine.State(), Deck: s.engine.DeckStatus()}
}

// Snapshot returns the serializable engine state
func (s *GameService) Snapshot() domain.Snapshot {
	return s.engine.Snapshot()
}

// Catalog returns the trick catalog
func (s *GameService) Catalog() []domain.Trick {
	return s.engine.Catalog()
}

// History lists finished games, newest first
func (s *GameService) History(ctx context.Context, limit, offset int) ([]domain.GameResult, error) {
	if s.history == nil {
		return []domain.GameResult{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	results, err := s.history.ListResults(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return results, nil
}

// PlayerStats returns finished-game totals for a player name
func (s *GameService) PlayerStats(ctx context.Context, name string) (*domain.PlayerStats, error) {
	if s.history == nil {
		return nil, domain.ErrPlayerNotFound
	}
	return s.history.PlayerStats(ctx, name)
}

// GameEvents returns the event log of a finished game
func (s *GameService) GameEvents(ctx context.Context, gameID string) ([]string, error) {
	if s.history == nil {
		return nil, domain.ErrGameNotFound
	}
	return s.history.EventLog(ctx, gameID)
}

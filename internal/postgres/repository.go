package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ensured/skate-deck-sub000/internal/config"
	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// Repository provides PostgreSQL-based game history and checkpoints
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS game_results (
			game_id VARCHAR(64) PRIMARY KEY,
			word VARCHAR(16) NOT NULL,
			winner_name VARCHAR(32) NOT NULL,
			rounds INT NOT NULL,
			ended_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_result_players (
			game_id VARCHAR(64) NOT NULL REFERENCES game_results(game_id) ON DELETE CASCADE,
			player_id INT NOT NULL,
			name VARCHAR(32) NOT NULL,
			letters INT NOT NULL,
			score INT NOT NULL,
			winner BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (game_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS game_events (
			id BIGSERIAL PRIMARY KEY,
			game_id VARCHAR(64) NOT NULL REFERENCES game_results(game_id) ON DELETE CASCADE,
			seq INT NOT NULL,
			entry TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_checkpoints (
			id BIGSERIAL PRIMARY KEY,
			game_id VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			snapshot JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_ended ON game_results(ended_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_game_result_players_name ON game_result_players(LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_game_events_game ON game_events(game_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_game_checkpoints_created ON game_checkpoints(created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// RecordResult stores a finished game with its standings and event log.
// Recording the same game twice is a no-op.
func (r *Repository) RecordResult(ctx context.Context, result domain.GameResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO game_results (game_id, word, winner_name, rounds, ended_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO NOTHING
	`, result.GameID, result.Word, result.WinnerName, result.Rounds, result.EndedAt)
	if err != nil {
		return fmt.Errorf("recording game result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range result.Players {
		batch.Queue(`
			INSERT INTO game_result_players (game_id, player_id, name, letters, score, winner)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, result.GameID, p.PlayerID, p.Name, p.Letters, p.Score, p.Winner)
	}
	for i, entry := range result.EventLog {
		batch.Queue(`INSERT INTO game_events (game_id, seq, entry) VALUES ($1, $2, $3)`, result.GameID, i, entry)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("recording game details: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("recording game details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing game result: %w", err)
	}
	return nil
}

// ListResults returns finished games, newest first, with their standings
func (r *Repository) ListResults(ctx context.Context, limit, offset int) ([]domain.GameResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT game_id, word, winner_name, rounds, ended_at
		FROM game_results
		ORDER BY ended_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing game results: %w", err)
	}
	defer rows.Close()

	results := []domain.GameResult{}
	index := make(map[string]int)
	ids := []string{}
	for rows.Next() {
		var res domain.GameResult
		if err := rows.Scan(&res.GameID, &res.Word, &res.WinnerName, &res.Rounds, &res.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning game result: %w", err)
		}
		index[res.GameID] = len(results)
		ids = append(ids, res.GameID)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing game results: %w", err)
	}
	if len(ids) == 0 {
		return results, nil
	}

	prows, err := r.pool.Query(ctx, `
		SELECT game_id, player_id, name, letters, score, winner
		FROM game_result_players
		WHERE game_id = ANY($1)
		ORDER BY game_id, player_id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("listing game players: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var gameID string
		var p domain.PlayerResult
		if err := prows.Scan(&gameID, &p.PlayerID, &p.Name, &p.Letters, &p.Score, &p.Winner); err != nil {
			return nil, fmt.Errorf("scanning game player: %w", err)
		}
		i := index[gameID]
		results[i].Players = append(results[i].Players, p)
	}
	return results, prows.Err()
}

// EventLog returns the stored event log of a finished game
func (r *Repository) EventLog(ctx context.Context, gameID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT entry FROM game_events WHERE game_id = $1 ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("getting event log: %w", err)
	}
	defer rows.Close()

	entries := []string{}
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting event log: %w", err)
	}
	if len(entries) == 0 {
		return nil, domain.ErrGameNotFound
	}
	return entries, nil
}

// PlayerStats aggregates finished games for a player name, ignoring case
func (r *Repository) PlayerStats(ctx context.Context, name string) (*domain.PlayerStats, error) {
	stats := domain.PlayerStats{Name: name}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE winner), COALESCE(SUM(score), 0)
		FROM game_result_players
		WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&stats.GamesPlayed, &stats.Wins, &stats.TotalScore)
	if err != nil {
		return nil, fmt.Errorf("getting player stats: %w", err)
	}
	if stats.GamesPlayed == 0 {
		return nil, domain.ErrPlayerNotFound
	}
	return &stats, nil
}

// SaveCheckpoint stores a serialized snapshot
func (r *Repository) SaveCheckpoint(ctx context.Context, gameID string, status domain.Status, snapshot []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO game_checkpoints (game_id, status, snapshot, created_at)
		VALUES ($1, $2, $3, $4)
	`, gameID, string(status), snapshot, time.Now())
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the newest stored snapshot
func (r *Repository) LatestCheckpoint(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot FROM game_checkpoints ORDER BY created_at DESC, id DESC LIMIT 1
	`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("getting latest checkpoint: %w", err)
	}
	return data, nil
}

// PruneCheckpoints keeps only the newest keep checkpoints
func (r *Repository) PruneCheckpoints(ctx context.Context, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM game_checkpoints
		WHERE id NOT IN (SELECT id FROM game_checkpoints ORDER BY created_at DESC, id DESC LIMIT $1)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning checkpoints: %w", err)
	}
	return tag.RowsAffected(), nil
}

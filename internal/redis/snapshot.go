package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ensured/skate-deck-sub000/internal/config"
	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// SnapshotStore keeps the serialized game snapshot under a fixed key, plus a
// small metadata hash for cheap status reads.
type SnapshotStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// SnapshotMeta summarizes the stored snapshot without decoding it
type SnapshotMeta struct {
	GameID  string        `json:"game_id"`
	Status  domain.Status `json:"status"`
	Round   int           `json:"round"`
	Players int           `json:"players"`
	SavedAt time.Time     `json:"saved_at"`
}

// NewSnapshotStore connects to Redis and returns a snapshot store
func NewSnapshotStore(cfg *config.RedisConfig, logger *slog.Logger) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewSnapshotStoreWithClient(client, cfg.StateKey, logger), nil
}

// NewSnapshotStoreWithClient wraps an existing client
func NewSnapshotStoreWithClient(client *redis.Client, key string, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		key:    key,
		logger: logger,
	}
}

// Close closes the Redis connection
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SnapshotStore) metaKey() string {
	return s.key + ":meta"
}

// Save stores the snapshot and its metadata in one transaction
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key, data, 0)
		pipe.HSet(ctx, s.metaKey(),
			"game_id", snap.GameState.GameID,
			"status", string(snap.GameState.Status),
			"round", snap.GameState.Round,
			"players", len(snap.GameState.Players),
			"saved_at", snap.SavedAt.UTC().Format(time.RFC3339Nano),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or domain.ErrSnapshotNotFound
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// LoadRaw returns the stored snapshot bytes, or domain.ErrSnapshotNotFound
func (s *SnapshotStore) LoadRaw(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return data, nil
}

// Meta returns the metadata of the stored snapshot
func (s *SnapshotStore) Meta(ctx context.Context) (*SnapshotMeta, error) {
	result, err := s.client.HGetAll(ctx, s.metaKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("getting snapshot meta: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}

	round, _ := strconv.Atoi(result["round"])
	players, _ := strconv.Atoi(result["players"])
	savedAt, _ := time.Parse(time.RFC3339Nano, result["saved_at"])

	return &SnapshotMeta{
		GameID:  result["game_id"],
		Status:  domain.Status(result["status"]),
		Round:   round,
		Players: players,
		SavedAt: savedAt,
	}, nil
}

// Delete removes the snapshot and its metadata
func (s *SnapshotStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, s.metaKey()).Err(); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// Exists checks if a snapshot is stored
func (s *SnapshotStore) Exists(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return n > 0, nil
}

package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ensured/skate-deck-sub000/internal/config"
	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/redis"
)

// SnapshotSource reads the live snapshot
type SnapshotSource interface {
	LoadRaw(ctx context.Context) ([]byte, error)
	Meta(ctx context.Context) (*redis.SnapshotMeta, error)
}

// CheckpointSink keeps durable copies of snapshots
type CheckpointSink interface {
	SaveCheckpoint(ctx context.Context, gameID string, status domain.Status, snapshot []byte) error
	PruneCheckpoints(ctx context.Context, keep int) (int64, error)
}

// CheckpointWorker periodically copies the Redis snapshot into PostgreSQL
type CheckpointWorker struct {
	source  SnapshotSource
	sink    CheckpointSink
	config  *config.CheckpointConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	lastAt  time.Time
}

// NewCheckpointWorker creates a new checkpoint worker
func NewCheckpointWorker(
	source SnapshotSource,
	sink CheckpointSink,
	cfg *config.CheckpointConfig,
	logger *slog.Logger,
) *CheckpointWorker {
	return &CheckpointWorker{
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background checkpoint loop
func (w *CheckpointWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("checkpoint worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background checkpoint loop
func (w *CheckpointWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("checkpoint worker stopped")
	return nil
}

func (w *CheckpointWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("checkpoint failed", "error", err)
			}
		}
	}
}

// RunOnce writes a checkpoint if the snapshot changed since the last one.
// It reports whether a checkpoint was written.
func (w *CheckpointWorker) RunOnce(ctx context.Context) (bool, error) {
	meta, err := w.source.Meta(ctx)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		w.logger.Debug("no snapshot to checkpoint")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	unchanged := !w.lastAt.IsZero() && meta.SavedAt.Equal(w.lastAt)
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	data, err := w.source.LoadRaw(ctx)
	if err != nil {
		return false, err
	}

	if err := w.sink.SaveCheckpoint(ctx, meta.GameID, meta.Status, data); err != nil {
		return false, err
	}

	w.mu.Lock()
	w.lastAt = meta.SavedAt
	w.mu.Unlock()

	pruned, err := w.sink.PruneCheckpoints(ctx, w.config.Keep)
	if err != nil {
		w.logger.Warn("failed to prune checkpoints", "error", err)
	}

	w.logger.Info("checkpoint written",
		"game_id", meta.GameID,
		"status", meta.Status,
		"round", meta.Round,
		"pruned", pruned,
	)
	return true, nil
}

// IsRunning returns whether the worker is currently running
func (w *CheckpointWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

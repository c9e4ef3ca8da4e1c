package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ensured/skate-deck-sub000/internal/config"
	"github.com/ensured/skate-deck-sub000/internal/domain"
	"github.com/ensured/skate-deck-sub000/internal/redis"
)

type fakeSource struct {
	meta *redis.SnapshotMeta
	data []byte
}

func (f *fakeSource) Meta(context.Context) (*redis.SnapshotMeta, error) {
	if f.meta == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	m := *f.meta
	return &m, nil
}

func (f *fakeSource) LoadRaw(context.Context) ([]byte, error) {
	if f.data == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return f.data, nil
}

type checkpoint struct {
	gameID string
	status domain.Status
	data   string
}

type fakeSink struct {
	saved   []checkpoint
	keep    []int
	saveErr error
}

func (f *fakeSink) SaveCheckpoint(_ context.Context, gameID string, status domain.Status, snapshot []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, checkpoint{gameID, status, string(snapshot)})
	return nil
}

func (f *fakeSink) PruneCheckpoints(_ context.Context, keep int) (int64, error) {
	f.keep = append(f.keep, keep)
	return 0, nil
}

func newWorker(src SnapshotSource, sink CheckpointSink) *CheckpointWorker {
	cfg := &config.CheckpointConfig{Interval: time.Hour, Keep: 3}
	return NewCheckpointWorker(src, sink, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		meta: &redis.SnapshotMeta{GameID: "g1", Status: domain.StatusActive, Round: 2, SavedAt: saved},
		data: []byte(`{"v":1}`),
	}
	sink := &fakeSink{}
	w := newWorker(src, sink)

	wrote, err := w.RunOnce(ctx)
	if err != nil || !wrote {
		t.Fatalf("first run: wrote=%v err=%v", wrote, err)
	}
	if len(sink.saved) != 1 || sink.saved[0] != (checkpoint{"g1", domain.StatusActive, `{"v":1}`}) {
		t.Fatalf("saved = %+v", sink.saved)
	}
	if len(sink.keep) != 1 || sink.keep[0] != 3 {
		t.Fatalf("prune calls = %v", sink.keep)
	}

	// Same snapshot again: nothing new to write.
	wrote, err = w.RunOnce(ctx)
	if err != nil || wrote {
		t.Fatalf("unchanged run: wrote=%v err=%v", wrote, err)
	}

	src.meta.SavedAt = saved.Add(time.Second)
	src.data = []byte(`{"v":2}`)
	wrote, err = w.RunOnce(ctx)
	if err != nil || !wrote {
		t.Fatalf("changed run: wrote=%v err=%v", wrote, err)
	}
	if len(sink.saved) != 2 || sink.saved[1].data != `{"v":2}` {
		t.Fatalf("saved = %+v", sink.saved)
	}
}

func TestRunOnceWithoutSnapshot(t *testing.T) {
	sink := &fakeSink{}
	w := newWorker(&fakeSource{}, sink)

	wrote, err := w.RunOnce(context.Background())
	if err != nil || wrote {
		t.Fatalf("wrote=%v err=%v", wrote, err)
	}
	if len(sink.saved) != 0 {
		t.Fatalf("unexpected checkpoint %+v", sink.saved)
	}
}

func TestRunOnceRetriesAfterSaveError(t *testing.T) {
	src := &fakeSource{
		meta: &redis.SnapshotMeta{GameID: "g1", Status: domain.StatusLobby, SavedAt: time.Unix(100, 0)},
		data: []byte(`{}`),
	}
	sink := &fakeSink{saveErr: errors.New("db down")}
	w := newWorker(src, sink)

	if _, err := w.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	sink.saveErr = nil
	wrote, err := w.RunOnce(context.Background())
	if err != nil || !wrote {
		t.Fatalf("retry: wrote=%v err=%v", wrote, err)
	}
}

func TestStartStop(t *testing.T) {
	w := newWorker(&fakeSource{}, &fakeSink{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !w.IsRunning() {
		t.Fatal("worker should be running")
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
}

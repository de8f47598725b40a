package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"diagramdb/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingSnapshotStore lets a test hold a checkpoint open to observe
// the skip and deadline behavior.
type blockingSnapshotStore struct {
	mu      sync.Mutex
	writes  int
	release chan struct{} // nil means writes complete immediately
	last    map[string]*models.File
}

func (b *blockingSnapshotStore) WriteSnapshotFile(files map[string]*models.File) error {
	b.mu.Lock()
	b.writes++
	b.last = files
	release := b.release
	b.mu.Unlock()

	if release != nil {
		<-release
	}

	return nil
}

func (b *blockingSnapshotStore) LoadSnapshotFile() (map[string]*models.File, error) {
	return make(map[string]*models.File), nil
}

func (b *blockingSnapshotStore) ExportFiles(map[string]*models.File) (string, error) {
	return "", nil
}

func (b *blockingSnapshotStore) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.writes
}

func TestCheckpointWritesSnapshot(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	require.NoError(t, store.SaveFile(testFile("f1")))

	sink := &blockingSnapshotStore{}
	scheduler := NewCheckpointScheduler(store, sink, time.Hour, zap.NewNop().Sugar())

	require.NoError(t, scheduler.Checkpoint())
	assert.Equal(t, 1, sink.writeCount())
	require.Len(t, sink.last, 1)
	assert.True(t, testFile("f1").Equal(sink.last["f1"]))
}

func TestPeriodicCheckpointing(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	require.NoError(t, store.SaveFile(testFile("f1")))

	sink := &blockingSnapshotStore{}
	scheduler := NewCheckpointScheduler(store, sink, 10*time.Millisecond, zap.NewNop().Sugar())
	scheduler.Start()

	require.Eventually(t, func() bool {
		return sink.writeCount() >= 3
	}, 5*time.Second, 5*time.Millisecond, "ticker never fired")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Shutdown(ctx))
}

func TestPeriodicSkipsWhileRunInFlight(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	require.NoError(t, store.SaveFile(testFile("f1")))

	release := make(chan struct{})
	sink := &blockingSnapshotStore{release: release}
	scheduler := NewCheckpointScheduler(store, sink, 10*time.Millisecond, zap.NewNop().Sugar())
	scheduler.Start()

	// The first run blocks on the sink. Every later tick must skip
	// instead of queueing a second writer.
	require.Eventually(t, func() bool {
		return sink.writeCount() == 1
	}, 5*time.Second, time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, sink.writeCount(), "overlapping checkpoint runs were not skipped")

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Shutdown(ctx))
}

func TestShutdownRunsFinalCheckpoint(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	require.NoError(t, store.SaveFile(testFile("f1")))

	sink := &blockingSnapshotStore{}
	scheduler := NewCheckpointScheduler(store, sink, time.Hour, zap.NewNop().Sugar())
	scheduler.Start()

	// The interval never elapsed; the final write is the shutdown
	// checkpoint.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Shutdown(ctx))
	assert.Equal(t, 1, sink.writeCount())
}

func TestShutdownDeadline(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	require.NoError(t, store.SaveFile(testFile("f1")))

	release := make(chan struct{})
	sink := &blockingSnapshotStore{release: release}
	scheduler := NewCheckpointScheduler(store, sink, time.Hour, zap.NewNop().Sugar())
	scheduler.Start()

	// The snapshot write blocks past the deadline: Shutdown must give
	// up and report the deadline, not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := scheduler.Shutdown(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(release)
}

func TestShutdownWithoutStart(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	sink := &blockingSnapshotStore{}
	scheduler := NewCheckpointScheduler(store, sink, time.Hour, zap.NewNop().Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Shutdown(ctx))
	assert.Equal(t, 1, sink.writeCount())
}

package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckpointScheduler snapshots the store to disk on a fixed interval
// and once more at shutdown. Both triggers run the same routine; a
// dedicated persistence mutex (distinct from the store's in-memory
// lock) keeps two runs from ever writing the snapshot path
// concurrently.
type CheckpointScheduler struct {
	store     FileStore
	snapshots SnapshotStore
	interval  time.Duration
	logger    *zap.SugaredLogger

	// persistMu serializes writers of the snapshot file. The periodic
	// path only TryLocks it: if a previous run is still writing, the
	// tick is skipped rather than queued.
	persistMu sync.Mutex

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCheckpointScheduler wires the scheduler. Start must be called to
// begin the periodic runs.
func NewCheckpointScheduler(store FileStore, snapshots SnapshotStore, interval time.Duration, logger *zap.SugaredLogger) *CheckpointScheduler {
	return &CheckpointScheduler{
		store:     store,
		snapshots: snapshots,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the periodic checkpoint loop. Failures are logged and
// never stop the ticker.
func (c *CheckpointScheduler) Start() {
	c.started = true

	go func() {
		defer close(c.doneCh)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !c.persistMu.TryLock() {
					c.logger.Warnf("Skipping periodic checkpoint, previous run still in progress")
					continue
				}

				if err := c.checkpointLocked(); err != nil {
					c.logger.Errorf("Failed to save files to disk: %v", err)
				} else {
					c.logger.Infof("Periodic save completed successfully")
				}

				c.persistMu.Unlock()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Checkpoint runs one snapshot-and-persist pass, waiting for any
// in-flight run to finish first.
func (c *CheckpointScheduler) Checkpoint() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	return c.checkpointLocked()
}

// checkpointLocked must be called with persistMu held. The store lock
// is released by Snapshot before any encoding or disk I/O starts.
func (c *CheckpointScheduler) checkpointLocked() error {
	files := c.store.Snapshot()

	return c.snapshots.WriteSnapshotFile(files)
}

// Shutdown stops the ticker and runs one final checkpoint, waiting for
// it until ctx expires. When the deadline wins the checkpoint keeps
// running in the background, but shutdown proceeds: the final snapshot
// is best-effort durability, not a correctness guarantee.
func (c *CheckpointScheduler) Shutdown(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })

	// Wait for the periodic loop to exit so it cannot race the final
	// run for the persistence lock after we return.
	if c.started {
		select {
		case <-c.doneCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Checkpoint()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

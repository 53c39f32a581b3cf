package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alissawu/miniex/internal/snapshot"
)

// RunSnapshotJob periodically dumps the book and truncates the
// operation log and outbox behind the snapshot. Blocks until ctx is
// cancelled; run it in its own goroutine.
func (e *Engine) RunSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := e.captureState()

			if err := w.WriteState(s); err != nil {
				e.log.Warn("snapshot write", zap.Error(err))
				continue
			}
			if err := e.wal.TruncateBefore(s.Seq); err != nil {
				e.log.Warn("wal truncate", zap.Error(err))
			}
			if e.ob != nil {
				if err := e.ob.TruncateAckedUpTo(s.Seq); err != nil {
					e.log.Warn("outbox truncate", zap.Error(err))
				}
			}
			e.log.Info("snapshot written", zap.Uint64("seq", s.Seq))
		}
	}
}

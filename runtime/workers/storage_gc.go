package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StorageGC periodically runs Badger value-log garbage collection.
// Badger never reclaims value-log space on its own; something has to call
// RunValueLogGC while the process runs.
type StorageGC struct {
	db       *badger.DB
	log      *slog.Logger
	interval time.Duration
}

func NewStorageGC(db *badger.DB, log *slog.Logger, interval time.Duration) *StorageGC {
	return &StorageGC{db: db, log: log, interval: interval}
}

func (w *StorageGC) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			// Repeat while there is something to rewrite; ErrNoRewrite
			// just means this cycle found nothing worth compacting.
			for {
				err := w.db.RunValueLogGC(0.5)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					w.log.Warn("Value log GC failed", "error", err)
					break
				}
			}
		}
	}
}

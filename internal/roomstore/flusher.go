package roomstore

import (
	"context"
	"sync"
	"time"

	"codeberg.org/portfolio/presence/internal/logger"
)

// periodically copies live room membership from the hub into the store
type Flusher struct {
	source   Source
	store    Store
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// creates a new flusher; ttl must outlive at least two intervals
func NewFlusher(source Source, store Store, interval, ttl time.Duration) *Flusher {
	return &Flusher{
		source:   source,
		store:    store,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// begins the background flush loop
func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.run()
	logger.Info("room snapshot flusher started", "interval", f.interval.String())
}

// stops the flusher after a final flush
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCh)
	})

	f.wg.Wait()
	logger.Info("room snapshot flusher stopped")
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.Flush(context.Background())
		case <-f.stopCh:
			logger.Info("flushing room snapshots before shutdown")
			f.Flush(context.Background())
			return
		}
	}
}

// writes every live room (refreshing its TTL) and deletes rooms that emptied
func (f *Flusher) Flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pending := make(map[string]struct{})

	for _, roomID := range f.source.TakeDirty() {
		pending[roomID] = struct{}{}
	}

	for _, roomID := range f.source.RoomIDs() {
		pending[roomID] = struct{}{}
	}

	if len(pending) == 0 {
		return
	}

	logger.Debug("flushing room snapshots", "count", len(pending))

	for roomID := range pending {
		snapshot, ok := f.source.Snapshot(roomID)
		if !ok {
			if err := f.store.Delete(ctx, roomID); err != nil {
				logger.ErrorErr(err, "failed to delete room snapshot", "room_id", roomID)
			}

			continue
		}

		if err := f.store.Save(ctx, snapshot, f.ttl); err != nil {
			logger.ErrorErr(err, "failed to save room snapshot", "room_id", roomID)
		}
	}
}

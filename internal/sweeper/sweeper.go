// Package sweeper периодически удаляет истёкшие инвайт-коды.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/chat-service/internal/logger"
)

const DefaultInterval = time.Minute

// Purger: то, что умеет удалять коды с expires_at <= now.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	purger   Purger
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func New(p Purger, interval time.Duration, now func() time.Time) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Sweeper{purger: p, interval: interval, now: now, log: logger.L().With("component", "sweeper")}
}

// Run крутится до отмены ctx. Ошибка прохода логируется, цикл продолжается.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep делает один проход.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	start := time.Now()
	n, err := s.purger.PurgeExpired(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("sweep failed", "err", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Info("expired invite codes purged", "count", n, "dur_ms", time.Since(start).Milliseconds())
	} else {
		s.log.Debug("sweep: nothing to purge")
	}
	return n
}

package auth

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/physai/textbook-backend/pkg/repository"
)

// Sweeper periodically deletes expired sessions. Expired credentials are
// already rejected at rotation time; the sweeper only keeps the table from
// accumulating dead rows.
type Sweeper struct {
	sessions repository.SessionRepo
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(sessions repository.SessionRepo, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{sessions: sessions, interval: interval, logger: logger, stop: make(chan struct{})}
}

// Start launches the sweep goroutine
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the sweeper to stop and waits for it
func (s *Sweeper) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.logger.Info("session sweeper stopping")
			return
		case <-ctx.Done():
			s.logger.Info("context canceled, session sweeper exiting")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx, time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Error("session sweep failed", slog.Any("err", err))
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", slog.Int64("count", n))
	}
}

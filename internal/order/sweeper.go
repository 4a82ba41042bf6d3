package order

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper cancels pending orders whose reservation TTL expired and returns
// their reserved stock. Run blocks until the context is cancelled.
type Sweeper struct {
	repo     Repository
	interval time.Duration
}

func NewSweeper(repo Repository, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Reservation sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reservation sweeper stopped")
			return
		case <-ticker.C:
			count, err := s.repo.SweepExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Error().Err(err).Msg("Reservation sweep failed")
				continue
			}
			if count > 0 {
				log.Info().Int("cancelled", count).Msg("Expired pending orders cancelled")
			}
		}
	}
}

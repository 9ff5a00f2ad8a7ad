package worker

import (
	"context"
	"time"

	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/pkg/logger"
)

// InvitationSweeper periodically marks pending invitations past their
// expiry as expired. Acceptance already fails closed on expiry; the sweep
// keeps listings honest without waiting for a read.
type InvitationSweeper struct {
	repo     repository.InvitationRepository
	interval time.Duration
	logger   *logger.Logger
}

func NewInvitationSweeper(repo repository.InvitationRepository, interval time.Duration, log *logger.Logger) *InvitationSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &InvitationSweeper{
		repo:     repo,
		interval: interval,
		logger:   log,
	}
}

func (s *InvitationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("invitation sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("invitation sweeper stopped")
			return
		case <-ticker.C:
			expired, err := s.repo.ExpireOverdue(ctx, time.Now())
			if err != nil {
				s.logger.Error(err, "invitation sweep failed")
				continue
			}
			if expired > 0 {
				s.logger.Info("expired overdue invitations", "count", expired)
			}
		}
	}
}

package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/logger"
)

// StartPointsScheduler periodically refreshes every actor's points, tier and
// badges so provider active-item counts stay current without a claim event.
func (s *PointsService) StartPointsScheduler(ctx context.Context, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			n, err := s.RefreshAll(ctx)
			if err != nil {
				logger.Errorf("[Scheduler] points refresh: %v", err)
				return
			}
			logger.Infof("[Scheduler] ✅ refreshed points for %d actors", n)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

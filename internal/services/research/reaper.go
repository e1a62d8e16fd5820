package research

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper periodically fails research jobs that never finished, for example
// because the process running them exited.
type Reaper struct {
	cron    *cron.Cron
	service *Service
	logger  *zap.Logger
}

// NewReaper schedules ReapStale on a cron spec such as "@every 5m".
func NewReaper(service *Service, schedule string) (*Reaper, error) {
	r := &Reaper{
		cron:    cron.New(),
		service: service,
		logger:  service.logger.Named("reaper"),
	}
	if _, err := r.cron.AddFunc(schedule, r.reap); err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reaper) Start() {
	r.cron.Start()
	r.logger.Info("research reaper started")
}

// Stop halts the schedule and waits for a running reap to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("research reaper stopped")
}

func (r *Reaper) reap() {
	if _, err := r.service.ReapStale(context.Background()); err != nil {
		r.logger.Error("failed to reap stale research jobs", zap.Error(err))
	}
}

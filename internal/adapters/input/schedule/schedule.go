package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"alexa-smarthome-bridge/internal/observability"
)

// Reporter is the part of the management port the schedule drives.
type Reporter interface {
	ReportAll(ctx context.Context) error
}

// Scheduler sends periodic change reports on a cron spec.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	timeout  time.Duration
	log      *slog.Logger
}

func New(spec string, reporter Reporter, timeout time.Duration, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reporter: reporter,
		timeout:  timeout,
		log:      log.With("component", "schedule"),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("report schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	err := s.reporter.ReportAll(ctx)
	observability.ReportCounter.WithLabelValues(observability.Outcome(err)).Inc()
	if err != nil {
		s.log.Warn("periodic report failed", "error", err, "took", time.Since(start))
		return
	}
	s.log.Debug("periodic report sent", "took", time.Since(start))
}

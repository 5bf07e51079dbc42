package workers

import (
	"github.com/robfig/cron"

	"github.com/Thagi/paper-scope/internal/platform/logger"
)

// Scheduler runs recurring background jobs. Currently the only job is the
// periodic ingestion pass.
type Scheduler struct {
	c   *cron.Cron
	log *logger.Logger
}

func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		c:   cron.New(),
		log: log.With("worker", "Scheduler"),
	}
}

// AddIngestionJob registers the ingestion pass on the given cron spec
// (six-field, with seconds).
func (s *Scheduler) AddIngestionJob(spec string, run func()) error {
	if err := s.c.AddFunc(spec, run); err != nil {
		return err
	}
	s.log.Info("ingestion job scheduled", "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.c.Start()
}

func (s *Scheduler) Stop() {
	s.c.Stop()
}

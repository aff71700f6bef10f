package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Idler is the mascot behaviour driven by the scheduler.
type Idler interface {
	Blink() bool
	Wander() (int, int)
}

// Prefetcher warms the weather cache for a location.
type Prefetcher interface {
	Prefetch(ctx context.Context, location string) error
}

type Config struct {
	BlinkInterval  time.Duration
	WanderInterval time.Duration

	// Prefetch is optional; a nil Prefetcher or empty Location disables the job.
	Prefetch         Prefetcher
	Location         string
	PrefetchInterval time.Duration
	PrefetchTimeout  time.Duration
}

// Scheduler runs the mascot idle jobs and the weather prefetch.
type Scheduler struct {
	scheduler *gocron.Scheduler
	idler     Idler
	cfg       Config
	log       zerolog.Logger
}

func New(idler Idler, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.BlinkInterval <= 0 {
		cfg.BlinkInterval = 15 * time.Second
	}
	if cfg.WanderInterval <= 0 {
		cfg.WanderInterval = 30 * time.Second
	}
	if cfg.PrefetchInterval <= 0 {
		cfg.PrefetchInterval = 10 * time.Minute
	}
	if cfg.PrefetchTimeout <= 0 {
		cfg.PrefetchTimeout = 30 * time.Second
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		idler:     idler,
		cfg:       cfg,
		log:       log,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
// Interval jobs wait one full interval before their first run, except the
// prefetch which runs immediately.
func (s *Scheduler) Start() error {
	if s.idler == nil {
		return errors.New("scheduler: mascot is required")
	}

	_, err := s.scheduler.Every(s.cfg.BlinkInterval).WaitForSchedule().Tag("blink").Do(func() {
		s.idler.Blink()
	})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(s.cfg.WanderInterval).WaitForSchedule().Tag("wander").Do(func() {
		s.idler.Wander()
	})
	if err != nil {
		return err
	}

	if s.cfg.Prefetch != nil && s.cfg.Location != "" {
		_, err = s.scheduler.Every(s.cfg.PrefetchInterval).Tag("prefetch").Do(s.prefetch)
		if err != nil {
			return err
		}
	} else {
		s.log.Info().Msg("weather prefetch disabled")
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) prefetch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PrefetchTimeout)
	defer cancel()

	if err := s.cfg.Prefetch.Prefetch(ctx, s.cfg.Location); err != nil {
		s.log.Warn().Err(err).Str("location", s.cfg.Location).Msg("weather prefetch failed")
		return
	}
	s.log.Debug().Str("location", s.cfg.Location).Msg("weather prefetched")
}

// Jobs reports the tags of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	var tags []string
	for _, j := range s.scheduler.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DuePostProcessor publishes scheduled posts whose time has come
type DuePostProcessor interface {
	PublishDuePosts(ctx context.Context) error
}

// Scheduler periodically sweeps due posts on a cron schedule
type Scheduler struct {
	processor DuePostProcessor
	spec      string
	logger    *slog.Logger
	cron      *cron.Cron
	running   bool
	mu        sync.Mutex
}

// New creates a new scheduler. spec is a cron expression or descriptor such as "@every 1m".
func New(processor DuePostProcessor, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		processor: processor,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the sweep and starts the cron runner.
// A sweep that is still running when the next tick fires is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))
	if _, err := c.AddFunc(s.spec, func() { s.process(ctx) }); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", s.spec, err)
	}

	s.cron = c
	s.running = true
	c.Start()

	s.logger.Info("post scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the cron runner and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("post scheduler stopped")
}

func (s *Scheduler) process(ctx context.Context) {
	s.logger.Debug("processing due posts")

	if err := s.processor.PublishDuePosts(ctx); err != nil {
		s.logger.Error("failed to process due posts", "error", err)
	}
}

// cronLogger routes cron's own messages to slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

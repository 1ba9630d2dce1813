package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProcessor struct {
	calls atomic.Int32
}

func (p *countingProcessor) PublishDuePosts(context.Context) error {
	p.calls.Add(1)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsSweep(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, "@every 1s", discard())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return proc.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(&countingProcessor{}, "every minute please", discard())

	err := s.Start(context.Background())
	assert.Error(t, err)

	s.Stop()
}

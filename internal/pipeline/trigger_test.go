package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (c *countingRunner) Run(context.Context, RunOptions) (*BatchResult, error) {
	c.calls.Add(1)
	return &BatchResult{}, c.err
}

func TestDailyTrigger_CheckAndTrigger(t *testing.T) {
	runner := &countingRunner{}
	trigger := NewDailyTrigger(DailyTriggerConfig{Hour: 2, Minute: 30}, runner)

	clock := time.Date(2026, 10, 1, 2, 29, 0, 0, time.UTC)
	trigger.now = func() time.Time { return clock }

	assert.False(t, trigger.checkAndTrigger(context.Background()), "before the scheduled time")

	clock = clock.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger(context.Background()))

	clock = clock.Add(time.Hour)
	assert.False(t, trigger.checkAndTrigger(context.Background()), "already ran today")

	clock = clock.AddDate(0, 0, 1)
	runner.err = ErrRunInProgress
	assert.True(t, trigger.checkAndTrigger(context.Background()))

	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestDailyTrigger_StartStop(t *testing.T) {
	trigger := NewDailyTrigger(DailyTriggerConfig{CheckInterval: time.Millisecond}, &countingRunner{})

	trigger.Start(context.Background())
	trigger.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, trigger.Stop(ctx))
	assert.NoError(t, trigger.Stop(ctx))
}

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDailyTrigger_FiresOncePerDay(t *testing.T) {
	fired := 0
	trigger := NewDailyTrigger("reaper", DailyTriggerConfig{Hour: 3, Minute: 30}, func(ctx context.Context) error {
		fired++
		return nil
	}, zap.NewNop())

	at := func(day, hour, minute int) {
		trigger.now = func() time.Time { return time.Date(2024, 1, day, hour, minute, 0, 0, time.Local) }
	}
	ctx := context.Background()

	at(8, 3, 29)
	assert.False(t, trigger.checkAndTrigger(ctx))

	at(8, 3, 30)
	assert.True(t, trigger.checkAndTrigger(ctx))
	assert.False(t, trigger.checkAndTrigger(ctx), "second check in the same minute")

	at(9, 3, 30)
	assert.True(t, trigger.checkAndTrigger(ctx))
	assert.Equal(t, 2, fired)
}

func TestDailyTrigger_FailureDoesNotRefire(t *testing.T) {
	calls := 0
	trigger := NewDailyTrigger("reaper", DailyTriggerConfig{Hour: 0, Minute: 0}, func(ctx context.Context) error {
		calls++
		return errors.New("queue full")
	}, zap.NewNop())
	trigger.now = func() time.Time { return time.Date(2024, 1, 8, 0, 0, 0, 0, time.Local) }

	assert.True(t, trigger.checkAndTrigger(context.Background()))
	assert.False(t, trigger.checkAndTrigger(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestDailyTrigger_StartStop(t *testing.T) {
	trigger := NewDailyTrigger("reaper", DailyTriggerConfig{CheckInterval: 10 * time.Millisecond}, func(ctx context.Context) error {
		return nil
	}, zap.NewNop())

	assert.NoError(t, trigger.Start(context.Background()))
	assert.NoError(t, trigger.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, trigger.Stop(ctx))
	assert.NoError(t, trigger.Stop(ctx))
}

package crawlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		strategy BackoffStrategy
		attempt  int
		expected time.Duration
	}{
		{"固定间隔", ConstantBackoff{Delay: 3 * time.Second}, 1, 3 * time.Second},
		{"固定间隔第二次", ConstantBackoff{Delay: 3 * time.Second}, 2, 3 * time.Second},
		{"非法次数", ConstantBackoff{Delay: 3 * time.Second}, 0, 0},
		{"指数第一次", ExponentialBackoff{BaseDelay: time.Second, Multiplier: 2}, 1, time.Second},
		{"指数第三次", ExponentialBackoff{BaseDelay: time.Second, Multiplier: 2}, 3, 4 * time.Second},
		{"指数上限", ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}, 10, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.NextDelay(tt.attempt))
		})
	}
}

func TestNewBackoff(t *testing.T) {
	assert.Equal(t, ConstantBackoff{Delay: time.Second}, NewBackoff("constant", time.Second, 0))
	assert.IsType(t, ExponentialBackoff{}, NewBackoff("exponential", time.Second, time.Minute))
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

package reembed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_Delay(t *testing.T) {
	b := NewBackoff(5*time.Second, 60*time.Second)

	tests := []struct {
		attempt int
		raw     time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, 60 * time.Second}, // capped
		{6, 60 * time.Second},
		{10, 60 * time.Second},
	}

	for _, tt := range tests {
		// Jitter draws from [raw/2, raw), so sample a few times.
		for i := 0; i < 20; i++ {
			delay, err := b.Delay(tt.attempt)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, delay, tt.raw/2, "attempt %d", tt.attempt)
			assert.Less(t, delay, tt.raw+1, "attempt %d", tt.attempt)
		}
	}
}

func TestBackoff_DelayInvalidAttempt(t *testing.T) {
	b := NewBackoff(time.Second, time.Minute)

	for _, attempt := range []int{0, -1, -100} {
		_, err := b.Delay(attempt)
		assert.ErrorIs(t, err, ErrInvalidAttempt)
	}
}

func TestBackoff_DelayJitterVaries(t *testing.T) {
	b := NewBackoff(time.Hour, 24*time.Hour)

	seen := make(map[time.Duration]bool)
	for i := 0; i < 50; i++ {
		delay, err := b.Delay(1)
		require.NoError(t, err)
		seen[delay] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should vary delays")
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	assert.Equal(t, DefaultRetryDelay, b.base)
	assert.Equal(t, DefaultMaxRetryDelay, b.max)

	// A cap below the base is raised to the base.
	b = NewBackoff(time.Minute, time.Second)
	assert.Equal(t, time.Minute, b.max)
}

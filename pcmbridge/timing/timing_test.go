package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSamplesPerFrame(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{rate: 48000, want: 804},
		{rate: 44100, want: 738},
		{rate: 11025, want: 185},
		{rate: 0, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SamplesPerFrame(tt.rate), "rate=%d", tt.rate)
	}
}

func TestBufferPeriod(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, BufferPeriod(4800, 48000))
	assert.Equal(t, time.Second, BufferPeriod(44100, 44100))
	assert.Equal(t, time.Duration(0), BufferPeriod(2048, 0))
}

func TestScale(t *testing.T) {
	assert.Equal(t, 20*time.Millisecond, Scale(10*time.Millisecond, 50))
	assert.Equal(t, 5*time.Millisecond, Scale(10*time.Millisecond, 200))
	assert.Equal(t, 10*time.Millisecond, Scale(10*time.Millisecond, 100))
	assert.Equal(t, 10*time.Millisecond, Scale(10*time.Millisecond, 0))
}

func TestLimiters_Pace(t *testing.T) {
	period := 5 * time.Millisecond

	tests := []struct {
		name    string
		limiter Limiter
		min     time.Duration
	}{
		{name: "adaptive", limiter: NewAdaptiveLimiter(period), min: 4 * period},
		{name: "ticker", limiter: NewTickerLimiter(period), min: 4 * period},
		{name: "no-op", limiter: NewNoOpLimiter(), min: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.limiter.Stop()
			tt.limiter.Reset()

			start := time.Now()
			for i := 0; i < 5; i++ {
				tt.limiter.WaitForNextFrame()
			}
			assert.GreaterOrEqual(t, time.Since(start), tt.min)
		})
	}
}

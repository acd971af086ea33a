package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent timing.
// Less accurate than AdaptiveLimiter but good enough for device pulls.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
}

func NewTickerLimiter(period time.Duration) *TickerLimiter {
	return &TickerLimiter{
		period: period,
		ticker: time.NewTicker(period),
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}

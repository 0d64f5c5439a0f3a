package uthread

import "time"

// tickerBackend is the portable fallback preemption source, used on
// any platform without a native timer fd/kqueue, or if acquiring one
// fails. A plain time.Ticker is exactly what idiomatic Go code reaches
// for here absent a platform-specific primitive.
type tickerBackend struct {
	ticker *time.Ticker
}

func newTickerBackend(interval time.Duration) preemptBackend {
	return &tickerBackend{ticker: time.NewTicker(interval)}
}

func (b *tickerBackend) wait(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-b.ticker.C:
		return true
	}
}

func (b *tickerBackend) close() {
	b.ticker.Stop()
}

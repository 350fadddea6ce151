package classifieds

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

// Delayer pauses between detail requests.
type Delayer interface {
	Wait(ctx context.Context) error
}

// NoDelay never waits.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

// RandomDelayer waits a uniformly chosen duration in [Min, Max] at
// millisecond granularity.
type RandomDelayer struct {
	Min time.Duration
	Max time.Duration
}

func (d RandomDelayer) Next() time.Duration {
	minMs := int(d.Min.Milliseconds())
	maxMs := int(d.Max.Milliseconds())
	if maxMs <= minMs {
		return d.Min
	}
	ms, err := random.IntRange(minMs, maxMs+1)
	if err != nil {
		return d.Min
	}
	ms = min(max(ms, minMs), maxMs)
	return time.Duration(ms) * time.Millisecond
}

func (d RandomDelayer) Wait(ctx context.Context) error {
	timer := time.NewTimer(d.Next())
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package jobflow

import "time"

// DelayPolicy yields the suspension before the next poll attempt.
// Implementations must be non-decreasing in attempt.
type DelayPolicy interface {
	Delay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay each attempt, capped at Max:
// min(Initial * 2^attempt, Max).
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// FixedDelay waits the same interval between every attempt.
type FixedDelay struct {
	Interval time.Duration
}

func (f FixedDelay) Delay(int) time.Duration {
	return f.Interval
}

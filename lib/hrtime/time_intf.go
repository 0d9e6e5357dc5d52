package hrtime

import "time"

// Clock reads a monotonic clock as the duration elapsed since the
// process started.
type Clock interface {
	MonotonicElapsed() time.Duration
}

var appStartTime = time.Now()

type goMonotonicClock struct{}

func (goMonotonicClock) MonotonicElapsed() time.Duration {
	return time.Since(appStartTime)
}

var GoMonotonicClock Clock = goMonotonicClock{}

// Stopwatch measures one phase of a workload.
type Stopwatch struct {
	clock Clock
	begin time.Duration
}

func StartStopwatch(clock Clock) Stopwatch {
	if clock == nil {
		clock = DefaultClock
	}
	return Stopwatch{
		clock: clock,
		begin: clock.MonotonicElapsed(),
	}
}

func (s Stopwatch) Elapsed() time.Duration {
	return s.clock.MonotonicElapsed() - s.begin
}

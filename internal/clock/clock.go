// Package clock turns a simulated duration into a fixed tick sequence.
// It never reads the wall clock.
package clock

import (
	"errors"
	"fmt"
	"math"

	"solana-memebot-sim/internal/domain"
)

// MsPerHour is the number of milliseconds in one hour.
const MsPerHour int64 = 3_600_000

// Clock errors.
var (
	ErrInvalidDuration     = errors.New("clock: duration must be positive and finite")
	ErrInvalidTicksPerHour = errors.New("clock: ticks per hour must be positive and divide one hour in milliseconds")
	ErrInvalidStartTime    = errors.New("clock: start time must be positive")
	ErrNoTicks             = errors.New("clock: duration yields zero ticks")
)

// Tick is one discrete simulated time step.
type Tick struct {
	Index       int   // zero-based position in the run
	TimestampMs int64 // simulated Unix milliseconds
}

// Clock is an immutable, precomputed tick sequence.
type Clock struct {
	ticks      []Tick
	intervalMs int64
}

// New builds the tick sequence for cfg.
// count = round(DurationHours * TicksPerHour), interval = 1h / TicksPerHour.
func New(cfg domain.RunConfig) (*Clock, error) {
	if math.IsNaN(cfg.DurationHours) || math.IsInf(cfg.DurationHours, 0) || cfg.DurationHours <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDuration, cfg.DurationHours)
	}
	if cfg.TicksPerHour <= 0 || MsPerHour%int64(cfg.TicksPerHour) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTicksPerHour, cfg.TicksPerHour)
	}
	if cfg.StartTimeMs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStartTime, cfg.StartTimeMs)
	}

	count := int(math.Round(cfg.DurationHours * float64(cfg.TicksPerHour)))
	if count < 1 {
		return nil, ErrNoTicks
	}

	interval := MsPerHour / int64(cfg.TicksPerHour)
	ticks := make([]Tick, count)
	for i := range ticks {
		ticks[i] = Tick{
			Index:       i,
			TimestampMs: cfg.StartTimeMs + int64(i)*interval,
		}
	}

	return &Clock{ticks: ticks, intervalMs: interval}, nil
}

// Ticks returns a copy of the tick sequence.
func (c *Clock) Ticks() []Tick {
	out := make([]Tick, len(c.ticks))
	copy(out, c.ticks)
	return out
}

// Len returns the number of ticks.
func (c *Clock) Len() int {
	return len(c.ticks)
}

// IntervalMs returns the spacing between consecutive ticks.
func (c *Clock) IntervalMs() int64 {
	return c.intervalMs
}

// First returns the first tick.
func (c *Clock) First() Tick {
	return c.ticks[0]
}

// Last returns the final tick.
func (c *Clock) Last() Tick {
	return c.ticks[len(c.ticks)-1]
}

// WindowStartMs returns the exclusive lower bound of the observation window
// ending at t: the previous tick's timestamp, or one interval earlier for the first tick.
func (c *Clock) WindowStartMs(t Tick) int64 {
	return t.TimestampMs - c.intervalMs
}

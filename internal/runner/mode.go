// SPDX-License-Identifier: MIT
package runner

import (
	"fmt"
	"strings"
	"time"
)

// Mode is an operating profile of the sampling loop.
type Mode int

const (
	// Off idles until the mode changes.
	Off Mode = iota
	// On feeds frames back to back as fast as the estimator runs.
	On
	// Hz1 wakes once a second and drains a 25-frame FIFO.
	Hz1
	// Hz5 wakes every 200 ms and drains 5 frames.
	Hz5
	// Hz25 wakes every 40 ms and handles a single frame.
	Hz25

	modeCount
)

var modeNames = [modeCount]string{"off", "on", "1hz", "5hz", "25hz"}

// String returns the configuration name of the mode.
func (m Mode) String() string {
	if m < 0 || m >= modeCount {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode that follows m in the button cycle.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

// ParseMode converts a configuration name (case-insensitive).
func ParseMode(name string) (Mode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range modeNames {
		if s == n {
			return Mode(i), nil
		}
	}
	return Off, fmt.Errorf("unknown mode: '%s' (want one of %s)", name, strings.Join(modeNames[:], ", "))
}

// Modes returns every mode in cycle order.
func Modes() []Mode {
	out := make([]Mode, modeCount)
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// Schedule is the timing of a periodic mode: every Interval the loop wakes
// and processes Batch frames. A zero Interval means run continuously.
type Schedule struct {
	Interval time.Duration
	Batch    int
}

// DefaultSchedule returns the timing of m. Off has no schedule.
func DefaultSchedule(m Mode) Schedule {
	switch m {
	case On:
		return Schedule{Batch: 1}
	case Hz1:
		return Schedule{Interval: time.Second, Batch: 25}
	case Hz5:
		return Schedule{Interval: 200 * time.Millisecond, Batch: 5}
	case Hz25:
		return Schedule{Interval: 40 * time.Millisecond, Batch: 1}
	default:
		return Schedule{}
	}
}

// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"peakfreq/internal/analysis"
)

// Transport defines a generic interface for publishing estimates.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Estimate is the message published for every peak the estimator produces.
type Estimate struct {
	Session     string  `json:"session"`
	Sequence    uint64  `json:"sequence"`
	TimestampNs int64   `json:"timestamp_ns"`
	FrequencyHz float32 `json:"frequency_hz"`
	Bin         int     `json:"bin"`
	Power       float32 `json:"power"`
	Channels    int     `json:"channels"`
	Source      string  `json:"source"`
}

// NewSession returns a fresh session id. Every estimate from one run of the
// program carries the same id so consumers can tell restarts apart.
func NewSession() uuid.UUID {
	return uuid.New()
}

// NewEstimate stamps a peak with its session, sequence number and the
// current wall-clock time.
func NewEstimate(session uuid.UUID, seq uint64, p analysis.Peak, channels int, source string) Estimate {
	return Estimate{
		Session:     session.String(),
		Sequence:    seq,
		TimestampNs: time.Now().UnixNano(),
		FrequencyHz: p.Frequency,
		Bin:         p.Bin,
		Power:       p.Power,
		Channels:    channels,
		Source:      source,
	}
}

// Multi fans every message out to a list of transports. A failing member
// does not stop delivery to the others; all errors are joined.
type Multi []Transport

// Send delivers data to every member.
func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)

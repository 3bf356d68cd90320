// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	applog "peakfreq/internal/log"
)

// LoggingTransport implements the Transport interface by logging each
// message at Info level.
type LoggingTransport struct {
	sent atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received message.
func (lt *LoggingTransport) Send(data any) error {
	lt.sent.Add(1)
	switch m := data.(type) {
	case Estimate:
		applog.Infof("Estimate #%d: %.4f Hz (bin %d, power %.4g, %d channels, %s)",
			m.Sequence, m.FrequencyHz, m.Bin, m.Power, m.Channels, m.Source)
	default:
		applog.Infof("LoggingTransport: %T %+v", data, data)
	}
	return nil
}

// Sent returns the number of messages logged.
func (lt *LoggingTransport) Sent() uint64 {
	return lt.sent.Load()
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LoggingTransport: Close called after %d messages", lt.Sent())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)

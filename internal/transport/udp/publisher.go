// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"time"

	"peakfreq/internal/analysis"
	applog "peakfreq/internal/log"
)

// DefaultInterval is used when NewUDPPublisher is given a non-positive one.
const DefaultInterval = 100 * time.Millisecond

// UDPPublisher periodically reads the latest estimate from a PeakProvider,
// packs it into a Packet and sends it through a UDPSender. It runs in its
// own goroutine between Start and Stop.
type UDPPublisher struct {
	sender   *UDPSender
	peaks    analysis.PeakProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates a publisher. Both sender and peaks are required.
func NewUDPPublisher(interval time.Duration, sender *UDPSender, peaks analysis.PeakProvider) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if peaks == nil {
		return nil, errors.New("UDPPublisher: peak provider cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)
	p := &UDPPublisher{
		sender:       sender,
		peaks:        peaks,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}
	p.packetBuffer.Grow(PacketSize)
	return p, nil
}

// Start launches the publishing goroutine. Calling Start while running is
// a no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, doneChan := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started")
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call more
// than once.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Stopped after %d packets", p.sequenceNum)
	return nil
}

// buildAndSendPacket publishes the latest estimate. Nothing is sent until
// the estimator has produced one.
func (p *UDPPublisher) buildAndSendPacket() {
	peak, ok := p.peaks.LatestPeak()
	if !ok {
		return
	}

	p.sequenceNum++
	pkt := Packet{
		Sequence:  p.sequenceNum,
		Timestamp: time.Now().UnixNano(),
		Bin:       uint16(min(peak.Bin, math.MaxUint16)),
		Frequency: peak.Frequency,
		Power:     peak.Power,
	}

	p.packetBuffer.Reset()
	if err := pkt.Encode(p.packetBuffer); err != nil {
		applog.Errorf("UDPPublisher: Error packing estimate: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%.4f Hz)", pkt.Sequence, pkt.Frequency)
	}
}

// Close implements io.Closer by stopping the publisher.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)

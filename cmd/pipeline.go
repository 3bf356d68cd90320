// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"

	"peakfreq/internal/analysis"
	"peakfreq/internal/config"
	"peakfreq/internal/generator"
	applog "peakfreq/internal/log"
	"peakfreq/internal/runner"
	"peakfreq/internal/transport"
	"peakfreq/internal/transport/udp"
)

// pipeline owns the estimator and everything that publishes its output.
type pipeline struct {
	est    *analysis.Estimator
	sink   transport.Transport
	sender *udp.UDPSender
	pub    *udp.UDPPublisher
	runner *runner.Runner
}

func newEstimator(cfg *config.Config) (*analysis.Estimator, error) {
	ac, err := cfg.EstimatorConfig()
	if err != nil {
		return nil, err
	}
	return analysis.New(ac)
}

// newSink builds the configured push transports plus any extra ones. It
// returns nil when nothing is enabled.
func newSink(tc config.TransportConfig, extra ...transport.Transport) transport.Transport {
	var sinks transport.Multi
	if tc.LogEnabled {
		sinks = append(sinks, transport.NewLoggingTransport())
	}
	if tc.WebSocketEnabled {
		sinks = append(sinks, transport.NewWebSocketTransport(tc.WebSocketAddr))
	}
	sinks = append(sinks, extra...)

	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	}
	return sinks
}

// startPublisher sends the latest peak over UDP at a fixed interval.
func (p *pipeline) startPublisher(tc config.TransportConfig, peaks analysis.PeakProvider) error {
	if !tc.UDPEnabled {
		return nil
	}
	sender, err := udp.NewUDPSender(tc.UDPTargetAddress)
	if err != nil {
		return err
	}
	pub, err := udp.NewUDPPublisher(tc.UDPSendInterval, sender, peaks)
	if err != nil {
		sender.Close()
		return err
	}
	p.sender, p.pub = sender, pub
	pub.Start()
	return nil
}

// newGeneratorPipeline wires the synthetic generator into a runner.
func newGeneratorPipeline(cfg *config.Config) (*pipeline, error) {
	est, err := newEstimator(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(cfg.GeneratorConfig())
	if err != nil {
		return nil, err
	}

	p := &pipeline{est: est, sink: newSink(cfg.Transport)}
	opts := []runner.Option{runner.WithSourceName("generator")}
	if p.sink != nil {
		opts = append(opts, runner.WithSink(p.sink))
	}
	p.runner, err = runner.New(est, gen, opts...)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := p.startPublisher(cfg.Transport, p.runner); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Close stops the runner and every transport, joining their errors.
func (p *pipeline) Close() error {
	var errs []error
	if p.runner != nil {
		errs = append(errs, p.runner.Stop())
	}
	if p.pub != nil {
		errs = append(errs, p.pub.Close())
	}
	if p.sender != nil {
		errs = append(errs, p.sender.Close())
	}
	if p.sink != nil {
		errs = append(errs, p.sink.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		applog.Warnf("Pipeline: Shutdown errors: %v", err)
	}
	return err
}

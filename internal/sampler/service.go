// Package sampler implements the sampling loop workers. Each probe
// gets its own loop so a stalled source never delays the others.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hostdiag/wifiradar/internal/history"
	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/probe"
	"github.com/hostdiag/wifiradar/internal/workers"
)

// serviceName is the prefix of the worker names in logs.
const serviceName = "sampler"

// Scanner lists the wireless networks currently in range.
type Scanner interface {
	Scan(ctx context.Context) ([]model.NetworkEntry, error)
}

// Service is the sampler service. Configure the fields before invoking
// [Service.StartWorkers].
type Service struct {
	// Probes are the metric probes, one loop each.
	Probes []probe.Probe

	// Scanner provides the periodic network scan.
	Scanner Scanner

	// Store receives the probe readings.
	Store *history.Store

	// ScanCell receives the scan reports.
	ScanCell *history.Cell[model.ScanReport]

	// MetricInterval is the cadence of the probe loops.
	MetricInterval time.Duration

	// ScanInterval is the cadence of the scan loop.
	ScanInterval time.Duration

	// ProbeTimeout bounds a single probe sample.
	ProbeTimeout time.Duration

	// ScanTimeout bounds a single scan.
	ScanTimeout time.Duration
}

// StartWorkers starts one worker per probe plus the scan worker.
func (s *Service) StartWorkers(logger model.Logger, workersManager *workers.Manager) {
	ws := &workersState{
		logger:         logger,
		metricInterval: s.MetricInterval,
		probeTimeout:   s.ProbeTimeout,
		scanCell:       s.ScanCell,
		scanInterval:   s.ScanInterval,
		scanTimeout:    s.ScanTimeout,
		scanner:        s.Scanner,
		store:          s.Store,
		workersManager: workersManager,
	}
	for _, p := range s.Probes {
		p := p
		workersManager.StartWorker(func() {
			ws.probeWorker(p)
		})
	}
	if s.Scanner != nil {
		workersManager.StartWorker(ws.scanWorker)
	}
}

// workersState contains the sampler workers state.
type workersState struct {
	// logger is the logger to use.
	logger model.Logger

	// metricInterval is the cadence of the probe loops.
	metricInterval time.Duration

	// probeTimeout bounds a single probe sample.
	probeTimeout time.Duration

	// scanCell receives the scan reports.
	scanCell *history.Cell[model.ScanReport]

	// scanInterval is the cadence of the scan loop.
	scanInterval time.Duration

	// scanTimeout bounds a single scan.
	scanTimeout time.Duration

	// scanner provides the periodic network scan.
	scanner Scanner

	// store receives the probe readings.
	store *history.Store

	// workersManager controls the workers lifecycle.
	workersManager *workers.Manager
}

// probeWorker runs the sampling loop of a single probe.
func (ws *workersState) probeWorker(p probe.Probe) {
	workerName := fmt.Sprintf("%s: %s", serviceName, p.Name())
	defer func() {
		ws.workersManager.StartShutdown()
		ws.logger.Debugf("%s: done", workerName)
	}()

	ws.logger.Debugf("%s: started", workerName)

	ticker := time.NewTicker(ws.metricInterval)
	defer ticker.Stop()

	// The first sample fires immediately so consumers do not stare at
	// an empty snapshot for a whole interval after startup.
	ws.sampleOnce(p)

	for {
		select {
		case <-ticker.C:
			ws.sampleOnce(p)

		case <-ws.workersManager.ShouldShutdown():
			return
		}
	}
}

// sampleOnce runs one probe tick and applies the per-failure-class
// treatment. A bad tick never stops the loop.
func (ws *workersState) sampleOnce(p probe.Probe) {
	ctx, cancel := context.WithTimeout(context.Background(), ws.probeTimeout)
	defer cancel()
	readings, err := p.Sample(ctx)
	if err != nil {
		ws.handleFailure(p, err)
		return
	}
	for _, r := range readings {
		if err := ws.store.Append(r); err != nil {
			ws.logger.Warnf("%s: %s: append: %s", serviceName, p.Name(), err)
		}
	}
}

// handleFailure applies the failure-class policy: unavailable sources
// leave sentinel readings, everything else skips the tick.
func (ws *workersState) handleFailure(p probe.Probe, err error) {
	var failure *probe.Failure
	if !errors.As(err, &failure) {
		ws.logger.Warnf("%s: %s: unclassified failure: %s", serviceName, p.Name(), err)
		return
	}
	switch failure.Kind {
	case probe.KindUnavailable:
		ws.logger.Debugf("%s: %s: source unavailable: %s", serviceName, p.Name(), err)
		at := time.Now()
		for _, id := range p.MetricIDs() {
			if err := ws.store.Append(model.NewInvalidReading(id, at)); err != nil {
				ws.logger.Warnf("%s: %s: append sentinel: %s", serviceName, p.Name(), err)
			}
		}
	case probe.KindFatal:
		// Fatal conditions are screened at startup; seeing one here
		// still must not stop the loop.
		ws.logger.Warnf("%s: %s: %s", serviceName, p.Name(), err)
	default:
		ws.logger.Debugf("%s: %s: skipping tick: %s", serviceName, p.Name(), err)
	}
}

// scanWorker runs the network scan loop.
func (ws *workersState) scanWorker() {
	workerName := fmt.Sprintf("%s: scan", serviceName)
	defer func() {
		ws.workersManager.StartShutdown()
		ws.logger.Debugf("%s: done", workerName)
	}()

	ws.logger.Debugf("%s: started", workerName)

	ticker := time.NewTicker(ws.scanInterval)
	defer ticker.Stop()

	ws.scanOnce()

	for {
		select {
		case <-ticker.C:
			ws.scanOnce()

		case <-ws.workersManager.ShouldShutdown():
			return
		}
	}
}

// scanOnce runs one scan tick. On failure the previous report stays in
// place and consumers see it age.
func (ws *workersState) scanOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), ws.scanTimeout)
	defer cancel()
	networks, err := ws.scanner.Scan(ctx)
	if err != nil {
		ws.logger.Debugf("%s: scan: %s", serviceName, err)
		return
	}
	ws.scanCell.Store(model.ScanReport{Networks: networks, At: time.Now()})
}

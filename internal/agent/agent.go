// Package agent wires the OS collaborators, probes, history store and
// speed test engine into one runnable diagnostics agent.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hostdiag/wifiradar/internal/history"
	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/pingx"
	"github.com/hostdiag/wifiradar/internal/probe"
	"github.com/hostdiag/wifiradar/internal/sampler"
	"github.com/hostdiag/wifiradar/internal/snapshot"
	"github.com/hostdiag/wifiradar/internal/sockstat"
	"github.com/hostdiag/wifiradar/internal/speedtest"
	"github.com/hostdiag/wifiradar/internal/wlan"
	"github.com/hostdiag/wifiradar/internal/workers"
	"github.com/hostdiag/wifiradar/pkg/config"
)

var (
	// ErrMissingTool means a required OS utility is not installed.
	ErrMissingTool = errors.New("agent: required tool missing")

	// ErrUnknownBackend means the configured speed test backend does
	// not exist.
	ErrUnknownBackend = errors.New("agent: unknown speed test backend")
)

// staleFactor is how many missed cycles make a report stale.
const staleFactor = 3

// Agent is the diagnostics agent: sampling loops feeding a history
// store, plus the on-demand speed test. Construct with [New], then
// [Agent.Start] the loops and [Agent.Shutdown] when done.
type Agent struct {
	// logger is the logger to use.
	logger model.Logger

	// manager owns the worker goroutines.
	manager *workers.Manager

	// service is the sampler service.
	service *sampler.Service

	// builder assembles the views.
	builder *snapshot.Builder

	// engine runs speed tests.
	engine *speedtest.Engine
}

// collaborators groups the OS-facing dependencies so tests can swap
// them for fakes.
type collaborators struct {
	link     probe.LinkReader
	scanner  sampler.Scanner
	pinger   probe.EchoPinger
	resolver probe.HostResolver
	counter  probe.StateCounter
	prober   speedtest.Prober
}

// New creates an [Agent] from the given configuration. Unusable
// options and missing OS utilities surface here, once, rather than on
// every sampling tick.
func New(cfg *config.Config) (*Agent, error) {
	logger := cfg.Logger()
	prober, err := newProber(cfg.SpeedTest())
	if err != nil {
		return nil, err
	}
	wlanClient := wlan.New(logger, cfg.Sampling().NoiseFloorDBm)
	if err := wlanClient.Available(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTool, err)
	}
	sockClient := sockstat.New(logger)
	if err := sockClient.Available(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingTool, err)
	}
	return newAgent(cfg, collaborators{
		link:     wlanClient,
		scanner:  wlanClient,
		pinger:   pingx.New(),
		resolver: net.DefaultResolver,
		counter:  sockClient,
		prober:   prober,
	}), nil
}

func newAgent(cfg *config.Config, deps collaborators) *Agent {
	logger := cfg.Logger()
	sampling := cfg.Sampling()

	store := history.New(sampling.HistoryCapacity(), model.AllMetrics())
	scanCell := &history.Cell[model.ScanReport]{}

	linkProbe := probe.NewLinkProbe(logger, deps.link)
	probes := []probe.Probe{
		linkProbe,
		probe.NewRouterPingProbe(logger, deps.pinger, sampling.LossWindow),
		probe.NewInternetPingProbe(logger, deps.pinger, sampling.InternetPingHost, sampling.LossWindow),
		probe.NewDNSProbe(logger, deps.resolver, sampling.DNSProbeHost),
		probe.NewTCPStatProbe(logger, deps.counter),
	}

	engine := speedtest.New(logger, deps.prober, cfg.SpeedTest().Timeout)

	return &Agent{
		logger:  logger,
		manager: workers.NewManager(),
		service: &sampler.Service{
			Probes:         probes,
			Scanner:        deps.scanner,
			Store:          store,
			ScanCell:       scanCell,
			MetricInterval: sampling.MetricInterval,
			ScanInterval:   sampling.ScanInterval,
			ProbeTimeout:   sampling.ProbeTimeout,
			ScanTimeout:    sampling.ScanTimeout,
		},
		builder: &snapshot.Builder{
			Store:          store,
			Link:           linkProbe.Link(),
			Scan:           scanCell,
			SpeedTest:      engine.ResultCell(),
			Window:         sampling.HistoryWindow,
			LinkStaleAfter: staleFactor * sampling.MetricInterval,
			ScanStaleAfter: staleFactor * sampling.ScanInterval,
		},
		engine: engine,
	}
}

// newProber selects the speed test backend.
func newProber(opts *config.SpeedTestOptions) (speedtest.Prober, error) {
	switch opts.Backend {
	case config.BackendHTTP:
		return speedtest.NewHTTPProber(opts.DownloadURL, opts.UploadURL, opts.UploadBytes), nil
	case config.BackendNDT7:
		return speedtest.NewNDT7Prober(opts.NDT7Server), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}

// Start launches the sampling workers. The first samples land without
// waiting for a full interval.
func (a *Agent) Start() {
	a.service.StartWorkers(a.logger, a.manager)
}

// Shutdown stops the workers and waits for them to observe the signal,
// which takes at most one tick.
func (a *Agent) Shutdown() {
	a.manager.StartShutdown()
	a.manager.WaitWorkersShutdown()
}

// Networks returns the nearby-networks view.
func (a *Agent) Networks() snapshot.NetworkList {
	return a.builder.Networks()
}

// Diagnostics returns the connection-quality view.
func (a *Agent) Diagnostics() snapshot.Diagnostics {
	return a.builder.Diagnostics()
}

// RunSpeedTest measures throughput right now. At most one run is in
// flight; concurrent calls fail fast with [speedtest.ErrBusy].
func (a *Agent) RunSpeedTest(ctx context.Context) (model.SpeedTestResult, error) {
	return a.engine.Run(ctx)
}

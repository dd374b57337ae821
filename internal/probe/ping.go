package probe

import (
	"context"
	"errors"
	"time"

	"github.com/jackpal/gateway"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/optional"
	"github.com/hostdiag/wifiradar/internal/pingx"
)

// EchoPinger measures one echo round trip.
type EchoPinger interface {
	Ping(ctx context.Context, host string) (time.Duration, error)
}

// TargetFunc yields the echo destination for one tick.
type TargetFunc func(ctx context.Context) (string, error)

// StaticTarget always returns the given destination.
func StaticTarget(host string) TargetFunc {
	return func(ctx context.Context) (string, error) {
		return host, nil
	}
}

// GatewayTarget discovers the default gateway on every tick, so the
// probe follows network changes without a restart.
func GatewayTarget() TargetFunc {
	return func(ctx context.Context) (string, error) {
		ip, err := gateway.DiscoverGateway()
		if err != nil {
			return "", err
		}
		return ip.String(), nil
	}
}

// PingProbe measures round trip, jitter, and loss toward one target.
// Jitter is the absolute delta between consecutive round trips; loss
// is the miss percentage over a fixed window of recent echoes.
type PingProbe struct {
	// name is the probe name, also used in logs.
	name string

	// logger is the logger to use.
	logger model.Logger

	// pinger performs single echo measurements.
	pinger EchoPinger

	// target yields the destination for each tick.
	target TargetFunc

	// rttMetric, jitterMetric and lossMetric are the emitted metrics.
	rttMetric    model.MetricID
	jitterMetric model.MetricID
	lossMetric   model.MetricID

	// prevRTT is the previous round trip, reset on any miss so the
	// first reading after recovery has no jitter.
	prevRTT optional.Value[float64]

	// window tracks recent echo outcomes for the loss percentage.
	window *lossWindow
}

var _ Probe = &PingProbe{}

// NewRouterPingProbe creates the probe that follows the default gateway.
func NewRouterPingProbe(logger model.Logger, pinger EchoPinger, windowSize int) *PingProbe {
	return newPingProbe(logger, pinger, "router", GatewayTarget(),
		model.MetricRouterPing, model.MetricRouterJitter, model.MetricRouterLoss, windowSize)
}

// NewInternetPingProbe creates the probe that targets a fixed internet host.
func NewInternetPingProbe(logger model.Logger, pinger EchoPinger, host string, windowSize int) *PingProbe {
	return newPingProbe(logger, pinger, "internet", StaticTarget(host),
		model.MetricInternetPing, model.MetricInternetJitter, model.MetricInternetLoss, windowSize)
}

func newPingProbe(logger model.Logger, pinger EchoPinger, name string, target TargetFunc,
	rtt, jitter, loss model.MetricID, windowSize int) *PingProbe {
	return &PingProbe{
		name:         name + "_ping",
		logger:       logger,
		pinger:       pinger,
		target:       target,
		rttMetric:    rtt,
		jitterMetric: jitter,
		lossMetric:   loss,
		prevRTT:      optional.None[float64](),
		window:       newLossWindow(windowSize),
	}
}

// Name implements [Probe].
func (p *PingProbe) Name() string {
	return p.name
}

// MetricIDs implements [Probe].
func (p *PingProbe) MetricIDs() []model.MetricID {
	return []model.MetricID{p.rttMetric, p.jitterMetric, p.lossMetric}
}

// Sample implements [Probe].
func (p *PingProbe) Sample(ctx context.Context) ([]model.Reading, error) {
	target, err := p.target(ctx)
	if err != nil {
		p.window.record(false)
		p.prevRTT = optional.None[float64]()
		return nil, Unavailable(p.name, err)
	}
	rtt, err := p.pinger.Ping(ctx, target)
	at := time.Now()
	if err != nil {
		p.window.record(false)
		p.prevRTT = optional.None[float64]()
		switch {
		case errors.Is(err, pingx.ErrTimeout), errors.Is(err, pingx.ErrUnreachable):
			// A missed echo still tells us something: round trip and
			// jitter are unknown this tick, loss is not.
			return []model.Reading{
				model.NewInvalidReading(p.rttMetric, at),
				model.NewInvalidReading(p.jitterMetric, at),
				model.NewReading(p.lossMetric, at, p.window.lossPercent(), model.UnitPercent),
			}, nil
		default:
			return nil, Unavailable(p.name, err)
		}
	}
	p.window.record(true)
	ms := roundTenth(float64(rtt) / float64(time.Millisecond))
	jitterReading := model.NewInvalidReading(p.jitterMetric, at)
	if !p.prevRTT.IsNone() {
		delta := ms - p.prevRTT.Unwrap()
		if delta < 0 {
			delta = -delta
		}
		jitterReading = model.NewReading(p.jitterMetric, at, roundTenth(delta), model.UnitMillis)
	}
	p.prevRTT = optional.Some(ms)
	return []model.Reading{
		model.NewReading(p.rttMetric, at, ms, model.UnitMillis),
		jitterReading,
		model.NewReading(p.lossMetric, at, p.window.lossPercent(), model.UnitPercent),
	}, nil
}

// lossWindow is a fixed ring of recent echo outcomes.
type lossWindow struct {
	// slots holds the outcomes, true for an answered echo.
	slots []bool

	// start is the index of the oldest outcome.
	start int

	// count is the number of recorded outcomes.
	count int
}

func newLossWindow(size int) *lossWindow {
	return &lossWindow{
		slots: make([]bool, size),
		start: 0,
		count: 0,
	}
}

// record stores one echo outcome, evicting the oldest when full.
func (w *lossWindow) record(ok bool) {
	if w.count < len(w.slots) {
		w.slots[(w.start+w.count)%len(w.slots)] = ok
		w.count++
		return
	}
	w.slots[w.start] = ok
	w.start = (w.start + 1) % len(w.slots)
}

// lossPercent returns the miss share of the recorded outcomes, rounded
// to one decimal. An empty window reports zero loss.
func (w *lossWindow) lossPercent() float64 {
	if w.count == 0 {
		return 0
	}
	answered := 0
	for i := 0; i < w.count; i++ {
		if w.slots[(w.start+i)%len(w.slots)] {
			answered++
		}
	}
	return roundTenth((1 - float64(answered)/float64(w.count)) * 100)
}

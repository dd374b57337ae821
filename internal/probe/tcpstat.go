package probe

import (
	"context"
	"time"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/sockstat"
)

// StateCounter tallies TCP connections by state.
type StateCounter interface {
	Counts(ctx context.Context) (sockstat.Counts, error)
}

// TCPStatProbe samples the host TCP connection counts.
type TCPStatProbe struct {
	// logger is the logger to use.
	logger model.Logger

	// counter queries the socket table.
	counter StateCounter
}

var _ Probe = &TCPStatProbe{}

// NewTCPStatProbe creates a [TCPStatProbe] on top of the given counter.
func NewTCPStatProbe(logger model.Logger, counter StateCounter) *TCPStatProbe {
	return &TCPStatProbe{
		logger:  logger,
		counter: counter,
	}
}

// Name implements [Probe].
func (p *TCPStatProbe) Name() string {
	return "tcpstat"
}

// MetricIDs implements [Probe].
func (p *TCPStatProbe) MetricIDs() []model.MetricID {
	return []model.MetricID{
		model.MetricTCPEstablished,
		model.MetricTCPCloseWait,
		model.MetricTCPTimeWait,
		model.MetricTCPTotal,
	}
}

// Sample implements [Probe].
func (p *TCPStatProbe) Sample(ctx context.Context) ([]model.Reading, error) {
	counts, err := p.counter.Counts(ctx)
	at := time.Now()
	if err != nil {
		if ctx.Err() != nil {
			return nil, Timeout(p.Name(), err)
		}
		return nil, Unavailable(p.Name(), err)
	}
	return []model.Reading{
		model.NewReading(model.MetricTCPEstablished, at, float64(counts.Established), model.UnitCount),
		model.NewReading(model.MetricTCPCloseWait, at, float64(counts.CloseWait), model.UnitCount),
		model.NewReading(model.MetricTCPTimeWait, at, float64(counts.TimeWait), model.UnitCount),
		model.NewReading(model.MetricTCPTotal, at, float64(counts.Total), model.UnitCount),
	}, nil
}

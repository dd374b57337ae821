package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackpal/gateway"

	"github.com/hostdiag/wifiradar/internal/history"
	"github.com/hostdiag/wifiradar/internal/model"
)

// errNotConnected is the failure cause when there is no wireless link.
var errNotConnected = errors.New("no active wireless link")

// LinkReader exposes the state of the wireless interface.
type LinkReader interface {
	Interface(ctx context.Context) (model.LinkInfo, error)
}

// GatewayFunc discovers the default gateway address.
type GatewayFunc func() (net.IP, error)

// LinkProbe samples the wireless association: driver signal quality,
// the derived dBm estimates, and the negotiated rates. It also keeps
// the latest [model.LinkReport] for snapshot consumers.
type LinkProbe struct {
	// logger is the logger to use.
	logger model.Logger

	// reader reads the interface state.
	reader LinkReader

	// discoverGateway resolves the default gateway, best effort.
	discoverGateway GatewayFunc

	// link holds the latest report, including disconnected ones.
	link *history.Cell[model.LinkReport]
}

var _ Probe = &LinkProbe{}

// NewLinkProbe creates a [LinkProbe] on top of the given reader.
func NewLinkProbe(logger model.Logger, reader LinkReader) *LinkProbe {
	return &LinkProbe{
		logger:          logger,
		reader:          reader,
		discoverGateway: gateway.DiscoverGateway,
		link:            &history.Cell[model.LinkReport]{},
	}
}

// Name implements [Probe].
func (p *LinkProbe) Name() string {
	return "link"
}

// MetricIDs implements [Probe].
func (p *LinkProbe) MetricIDs() []model.MetricID {
	return []model.MetricID{
		model.MetricSignalPercent,
		model.MetricRSSI,
		model.MetricSNR,
		model.MetricNoise,
		model.MetricRxRate,
		model.MetricTxRate,
	}
}

// Link returns the latest-report cell. The report is refreshed on
// every sample, including ticks where the link was down.
func (p *LinkProbe) Link() *history.Cell[model.LinkReport] {
	return p.link
}

// Sample implements [Probe].
func (p *LinkProbe) Sample(ctx context.Context) ([]model.Reading, error) {
	info, err := p.reader.Interface(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Timeout(p.Name(), err)
		}
		return nil, Unavailable(p.Name(), err)
	}
	at := time.Now()
	if info.Connected {
		if ip, err := p.discoverGateway(); err == nil {
			info.Gateway = ip.String()
		} else {
			p.logger.Debugf("link: gateway discovery: %s", err)
		}
	}
	p.link.Store(model.LinkReport{Link: info, At: at})
	if !info.Connected {
		return nil, Unavailable(p.Name(), errNotConnected)
	}
	return []model.Reading{
		model.NewReading(model.MetricSignalPercent, at, float64(info.SignalPercent), model.UnitPercent),
		model.NewDerivedReading(model.MetricRSSI, at, float64(info.RSSIdBm), model.UnitDBm),
		model.NewDerivedReading(model.MetricSNR, at, float64(info.SNRdB), model.UnitDB),
		model.NewDerivedReading(model.MetricNoise, at, float64(info.NoiseDBm), model.UnitDBm),
		model.NewReading(model.MetricRxRate, at, info.RxRateMbps, model.UnitMbps),
		model.NewReading(model.MetricTxRate, at, info.TxRateMbps, model.UnitMbps),
	}, nil
}

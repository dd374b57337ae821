package probe

import (
	"context"
	"time"

	"github.com/hostdiag/wifiradar/internal/model"
)

// HostResolver resolves a hostname to addresses. *net.Resolver
// satisfies this interface.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSProbe measures how long resolving a well-known hostname takes.
type DNSProbe struct {
	// logger is the logger to use.
	logger model.Logger

	// resolver performs the lookups.
	resolver HostResolver

	// host is the hostname to resolve.
	host string
}

var _ Probe = &DNSProbe{}

// NewDNSProbe creates a [DNSProbe] resolving the given hostname.
func NewDNSProbe(logger model.Logger, resolver HostResolver, host string) *DNSProbe {
	return &DNSProbe{
		logger:   logger,
		resolver: resolver,
		host:     host,
	}
}

// Name implements [Probe].
func (p *DNSProbe) Name() string {
	return "dns"
}

// MetricIDs implements [Probe].
func (p *DNSProbe) MetricIDs() []model.MetricID {
	return []model.MetricID{model.MetricDNSLookup}
}

// Sample implements [Probe].
func (p *DNSProbe) Sample(ctx context.Context) ([]model.Reading, error) {
	start := time.Now()
	_, err := p.resolver.LookupHost(ctx, p.host)
	at := time.Now()
	if err != nil {
		if ctx.Err() != nil {
			return nil, Timeout(p.Name(), err)
		}
		return nil, Unavailable(p.Name(), err)
	}
	elapsed := roundTenth(float64(at.Sub(start)) / float64(time.Millisecond))
	return []model.Reading{
		model.NewReading(model.MetricDNSLookup, at, elapsed, model.UnitMillis),
	}, nil
}

package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/sockstat"
	"github.com/hostdiag/wifiradar/internal/speedtest"
	"github.com/hostdiag/wifiradar/pkg/config"
)

type fakeLinkReader struct{}

func (fakeLinkReader) Interface(ctx context.Context) (model.LinkInfo, error) {
	return model.LinkInfo{
		Connected:     true,
		SSID:          "HomeBase",
		BSSID:         "aa:bb:cc:dd:ee:01",
		Channel:       36,
		SignalPercent: 80,
		RSSIdBm:       -60,
		SNRdB:         30,
		NoiseDBm:      -90,
	}, nil
}

type fakeScanner struct{}

func (fakeScanner) Scan(ctx context.Context) ([]model.NetworkEntry, error) {
	return []model.NetworkEntry{
		{SSID: "HomeBase", BSSID: "aa:bb:cc:dd:ee:01", SignalPercent: 80, RSSI: -60, Channel: 36},
	}, nil
}

type fakePinger struct{}

func (fakePinger) Ping(ctx context.Context, host string) (time.Duration, error) {
	return 12 * time.Millisecond, nil
}

type fakeResolver struct{}

func (fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return []string{"192.0.2.10"}, nil
}

type fakeCounter struct{}

func (fakeCounter) Counts(ctx context.Context) (sockstat.Counts, error) {
	return sockstat.Counts{Established: 3, Total: 3}, nil
}

type fakeProber struct{}

func (fakeProber) Name() string {
	return "fake"
}

func (fakeProber) Download(ctx context.Context) (speedtest.Transfer, error) {
	return speedtest.Transfer{Bytes: 10_000_000, Elapsed: time.Second}, nil
}

func (fakeProber) Upload(ctx context.Context) (speedtest.Transfer, error) {
	return speedtest.Transfer{Bytes: 5_000_000, Elapsed: time.Second}, nil
}

func newTestAgent() *Agent {
	cfg := config.NewConfig(
		config.WithLogger(model.NewTestLogger()),
		config.WithSamplingOptions(&config.SamplingOptions{
			MetricInterval:   20 * time.Millisecond,
			ScanInterval:     20 * time.Millisecond,
			HistoryWindow:    time.Minute,
			LossWindow:       30,
			ProbeTimeout:     50 * time.Millisecond,
			ScanTimeout:      50 * time.Millisecond,
			InternetPingHost: "192.0.2.1",
			DNSProbeHost:     "example.org",
			NoiseFloorDBm:    -90,
		}),
	)
	return newAgent(cfg, collaborators{
		link:     fakeLinkReader{},
		scanner:  fakeScanner{},
		pinger:   fakePinger{},
		resolver: fakeResolver{},
		counter:  fakeCounter{},
		prober:   fakeProber{},
	})
}

func TestAgentLifecycle(t *testing.T) {
	agent := newTestAgent()
	agent.Start()
	time.Sleep(100 * time.Millisecond)

	diag := agent.Diagnostics()
	for _, id := range []model.MetricID{
		model.MetricSignalPercent,
		model.MetricInternetPing,
		model.MetricDNSLookup,
		model.MetricTCPEstablished,
	} {
		metric, ok := diag.Metrics[id]
		if !ok || metric.Latest == nil || !metric.Latest.Valid {
			t.Fatalf("metric %s = %+v, want a valid reading", id, metric)
		}
	}
	if diag.Link == nil || !diag.Link.Connected || diag.Link.Stale {
		t.Fatalf("link = %+v, want a fresh connected report", diag.Link)
	}
	if tier := diag.Metrics[model.MetricSignalPercent].Tier; tier != model.TierGood {
		t.Fatalf("signal tier = %s, want good", tier)
	}

	nets := agent.Networks()
	if len(nets.Networks) != 1 || nets.Stale {
		t.Fatalf("networks = %+v, want one fresh entry", nets)
	}
	if !nets.Networks[0].Connected {
		t.Fatal("the associated network must be flagged")
	}

	result, err := agent.RunSpeedTest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.DownloadMbps != 80 {
		t.Fatalf("download = %v Mbit/s, want 80", result.DownloadMbps)
	}
	diag = agent.Diagnostics()
	if diag.SpeedTest == nil || diag.SpeedTest.ID != result.ID {
		t.Fatal("the speed test result must appear in the diagnostics view")
	}

	done := make(chan any)
	go func() {
		agent.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestNewProber(t *testing.T) {
	t.Run("http backend", func(t *testing.T) {
		p, err := newProber(config.DefaultSpeedTestOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := p.(*speedtest.HTTPProber); !ok {
			t.Fatalf("unexpected prober %T", p)
		}
	})
	t.Run("ndt7 backend", func(t *testing.T) {
		opts := config.DefaultSpeedTestOptions()
		opts.Backend = config.BackendNDT7
		p, err := newProber(opts)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := p.(*speedtest.NDT7Prober); !ok {
			t.Fatalf("unexpected prober %T", p)
		}
	})
	t.Run("unknown backend", func(t *testing.T) {
		opts := config.DefaultSpeedTestOptions()
		opts.Backend = "carrier-pigeon"
		if _, err := newProber(opts); !errors.Is(err, ErrUnknownBackend) {
			t.Fatalf("got %v, want ErrUnknownBackend", err)
		}
	})
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := config.NewConfig(
		config.WithLogger(model.NewTestLogger()),
		config.WithSpeedTestOptions(&config.SpeedTestOptions{Backend: "bogus"}),
	)
	if _, err := New(cfg); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("got %v, want ErrUnknownBackend", err)
	}
}

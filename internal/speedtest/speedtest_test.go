package speedtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hostdiag/wifiradar/internal/model"
)

// funcProber adapts two functions into a [Prober].
type funcProber struct {
	downloadFn func(ctx context.Context) (Transfer, error)
	uploadFn   func(ctx context.Context) (Transfer, error)
}

func (p *funcProber) Name() string {
	return "fake"
}

func (p *funcProber) Download(ctx context.Context) (Transfer, error) {
	return p.downloadFn(ctx)
}

func (p *funcProber) Upload(ctx context.Context) (Transfer, error) {
	return p.uploadFn(ctx)
}

func fixedProber(down, up Transfer) *funcProber {
	return &funcProber{
		downloadFn: func(ctx context.Context) (Transfer, error) { return down, nil },
		uploadFn:   func(ctx context.Context) (Transfer, error) { return up, nil },
	}
}

func TestTransferMbps(t *testing.T) {
	tests := []struct {
		bytes   int64
		elapsed time.Duration
		want    float64
	}{
		{10_000_000, 4 * time.Second, 20},
		{5_000_000, 2 * time.Second, 20},
		{1_250_000, time.Second, 10},
		{0, time.Second, 0},
		{1000, 0, 0},
	}
	for _, tt := range tests {
		tr := Transfer{Bytes: tt.bytes, Elapsed: tt.elapsed}
		if got := tr.Mbps(); got != tt.want {
			t.Errorf("Mbps(%d bytes, %s) = %v, want %v", tt.bytes, tt.elapsed, got, tt.want)
		}
	}
}

func TestEngineRun(t *testing.T) {
	prober := fixedProber(
		Transfer{Bytes: 10_000_000, Elapsed: 2 * time.Second},
		Transfer{Bytes: 5_000_000, Elapsed: 4 * time.Second},
	)
	engine := New(model.NewTestLogger(), prober, 5*time.Second)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(result.ID); err != nil {
		t.Fatalf("run ID %q is not a UUID", result.ID)
	}
	if result.DownloadMbps != 40 || result.UploadMbps != 10 {
		t.Fatalf("unexpected throughput: %+v", result)
	}
	if result.DownloadBytes != 10_000_000 || result.UploadBytes != 5_000_000 {
		t.Fatalf("unexpected byte counts: %+v", result)
	}
	if result.DownloadSeconds != 2 || result.UploadSeconds != 4 {
		t.Fatalf("unexpected durations: %+v", result)
	}

	last := engine.Last()
	if last.IsNone() || last.Unwrap().ID != result.ID {
		t.Fatal("Last() must return the stored result")
	}
}

func TestEngineSingleFlight(t *testing.T) {
	started := make(chan any)
	release := make(chan any)
	var gate sync.Once
	prober := &funcProber{
		downloadFn: func(ctx context.Context) (Transfer, error) {
			// Only the first download blocks; the rerun at the end
			// of the test must complete immediately.
			gate.Do(func() {
				close(started)
				<-release
			})
			return Transfer{Bytes: 1_000_000, Elapsed: time.Second}, nil
		},
		uploadFn: func(ctx context.Context) (Transfer, error) {
			return Transfer{Bytes: 1_000_000, Elapsed: time.Second}, nil
		},
	}
	engine := New(model.NewTestLogger(), prober, 5*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := engine.Run(context.Background())
		done <- err
	}()
	<-started

	if _, err := engine.Run(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// The gate is free again once the first run completed.
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestEnginePartialFailure(t *testing.T) {
	prober := &funcProber{
		downloadFn: func(ctx context.Context) (Transfer, error) {
			return Transfer{}, errors.New("download broke")
		},
		uploadFn: func(ctx context.Context) (Transfer, error) {
			return Transfer{Bytes: 5_000_000, Elapsed: 2 * time.Second}, nil
		},
	}
	engine := New(model.NewTestLogger(), prober, 5*time.Second)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.DownloadError == "" {
		t.Fatal("expected a download error in the result")
	}
	if result.DownloadMbps != 0 {
		t.Fatalf("download Mbps = %v, want 0", result.DownloadMbps)
	}
	if result.UploadMbps != 20 {
		t.Fatalf("upload Mbps = %v, want 20", result.UploadMbps)
	}
}

func TestEngineBothDirectionsFail(t *testing.T) {
	wrapped := errors.New("nope")
	prober := &funcProber{
		downloadFn: func(ctx context.Context) (Transfer, error) {
			return Transfer{}, classify("download", wrapped)
		},
		uploadFn: func(ctx context.Context) (Transfer, error) {
			return Transfer{}, classify("upload", wrapped)
		},
	}
	engine := New(model.NewTestLogger(), prober, 5*time.Second)

	_, err := engine.Run(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("got %v, want ErrUnreachable", err)
	}
	if !engine.Last().IsNone() {
		t.Fatal("a fully failed run must not be stored")
	}
}

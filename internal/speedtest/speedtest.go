// Package speedtest implements the on-demand throughput measurement
// against a third-party endpoint.
package speedtest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hostdiag/wifiradar/internal/history"
	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/optional"
)

var (
	// ErrBusy means another run is already in flight. Runs are
	// serialized; callers should retry after the current one ends.
	ErrBusy = errors.New("speedtest: run already in progress")

	// ErrUnreachable means the measurement endpoint did not answer.
	ErrUnreachable = errors.New("speedtest: endpoint unreachable")

	// ErrStalled means a transfer started but ran out of time.
	ErrStalled = errors.New("speedtest: transfer stalled")
)

// Transfer is the outcome of one direction of a run.
type Transfer struct {
	// Bytes is the transferred payload size.
	Bytes int64

	// Elapsed is the transfer duration.
	Elapsed time.Duration
}

// Mbps returns the transfer throughput in Mbit/s, rounded to two
// decimals.
func (t Transfer) Mbps() float64 {
	if t.Elapsed <= 0 {
		return 0
	}
	return roundHundredth(float64(t.Bytes) * 8 / t.Elapsed.Seconds() / 1e6)
}

// Prober performs the actual transfers against one endpoint flavor.
type Prober interface {
	// Name returns the prober name used in logs.
	Name() string

	// Download fetches the test payload.
	Download(ctx context.Context) (Transfer, error)

	// Upload pushes the test payload.
	Upload(ctx context.Context) (Transfer, error)
}

// Engine serializes speed-test runs and retains the latest result.
// Construct with [New].
type Engine struct {
	// logger is the logger to use.
	logger model.Logger

	// prober performs the transfers.
	prober Prober

	// timeout bounds a whole run, both directions included.
	timeout time.Duration

	// gate admits a single run at a time.
	gate *semaphore.Weighted

	// last holds the most recent completed result.
	last *history.Cell[model.SpeedTestResult]
}

// New creates an [Engine] on top of the given prober.
func New(logger model.Logger, prober Prober, timeout time.Duration) *Engine {
	return &Engine{
		logger:  logger,
		prober:  prober,
		timeout: timeout,
		gate:    semaphore.NewWeighted(1),
		last:    &history.Cell[model.SpeedTestResult]{},
	}
}

// Last returns the most recent completed result, if any.
func (e *Engine) Last() optional.Value[model.SpeedTestResult] {
	return e.last.Load()
}

// ResultCell returns the cell the engine stores results into, for
// wiring into snapshot building.
func (e *Engine) ResultCell() *history.Cell[model.SpeedTestResult] {
	return e.last
}

// Run measures download then upload throughput and stores the result.
// Concurrent invocations fail fast with [ErrBusy]. A run with a single
// failed direction still succeeds; the failure is recorded inside the
// result. Only both directions failing fails the run.
func (e *Engine) Run(ctx context.Context) (model.SpeedTestResult, error) {
	if !e.gate.TryAcquire(1) {
		return model.SpeedTestResult{}, ErrBusy
	}
	defer e.gate.Release(1)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	runID := uuid.NewString()
	e.logger.Infof("speedtest: %s: run %s: starting", e.prober.Name(), runID)

	// Directions run back to back: running them together would make
	// each measurement contend with the other for bandwidth.
	down, downErr := e.prober.Download(ctx)
	up, upErr := e.prober.Upload(ctx)
	if downErr != nil && upErr != nil {
		e.logger.Warnf("speedtest: run %s: download: %s", runID, downErr)
		e.logger.Warnf("speedtest: run %s: upload: %s", runID, upErr)
		return model.SpeedTestResult{}, downErr
	}

	result := model.SpeedTestResult{
		ID: runID,
		At: time.Now(),
	}
	if downErr != nil {
		e.logger.Warnf("speedtest: run %s: download: %s", runID, downErr)
		result.DownloadError = downErr.Error()
	} else {
		result.DownloadMbps = down.Mbps()
		result.DownloadBytes = down.Bytes
		result.DownloadSeconds = roundHundredth(down.Elapsed.Seconds())
		e.logger.Infof("speedtest: run %s: download: %.2f Mbit/s (%.2fs)",
			runID, result.DownloadMbps, result.DownloadSeconds)
	}
	if upErr != nil {
		e.logger.Warnf("speedtest: run %s: upload: %s", runID, upErr)
		result.UploadError = upErr.Error()
	} else {
		result.UploadMbps = up.Mbps()
		result.UploadBytes = up.Bytes
		result.UploadSeconds = roundHundredth(up.Elapsed.Seconds())
		e.logger.Infof("speedtest: run %s: upload: %.2f Mbit/s (%.2fs)",
			runID, result.UploadMbps, result.UploadSeconds)
	}
	e.last.Store(result)
	return result, nil
}

// roundHundredth rounds a value to two decimals, the precision we
// report for throughput and durations.
func roundHundredth(v float64) float64 {
	return math.Round(v*100) / 100
}

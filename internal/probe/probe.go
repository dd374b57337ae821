// Package probe implements the source adapters that turn external
// measurements into metric readings.
package probe

import (
	"context"
	"math"

	"github.com/hostdiag/wifiradar/internal/model"
)

// Probe is one source adapter covering a metric family. A probe is
// owned by a single sampler loop: [Probe.Sample] is never called
// concurrently on the same probe.
type Probe interface {
	// Name returns the probe name used in logs.
	Name() string

	// MetricIDs lists the metrics this probe emits, in emission order.
	MetricIDs() []model.MetricID

	// Sample collects one round of readings. The context bounds the
	// whole collection; a probe must return once it is done or the
	// deadline expired, never hang.
	Sample(ctx context.Context) ([]model.Reading, error)
}

// roundTenth rounds a value to one decimal, the precision we report
// for durations and percentages.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

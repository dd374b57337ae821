package model

import "time"

// Reading is one timestamped measurement of a metric. A Reading is immutable
// once created: probes build a fresh one per sample and the history store
// copies it around by value.
type Reading struct {
	// Metric identifies the measured metric.
	Metric MetricID `json:"metric"`

	// At is the time the sample was taken.
	At time.Time `json:"at"`

	// Value is the numeric value. It is meaningless when Valid is false.
	Value float64 `json:"value"`

	// Unit is the unit for Value (one of the Unit* constants).
	Unit string `json:"unit"`

	// Valid is false for sentinel readings written when the source was
	// unavailable; consumers must not score or chart such readings.
	Valid bool `json:"valid"`

	// Derived marks values computed from a policy mapping (e.g. dBm
	// estimated from a driver percentage) rather than measured directly.
	Derived bool `json:"derived"`
}

// NewReading returns a valid measured Reading.
func NewReading(metric MetricID, at time.Time, value float64, unit string) Reading {
	return Reading{
		Metric: metric,
		At:     at,
		Value:  value,
		Unit:   unit,
		Valid:  true,
	}
}

// NewDerivedReading returns a valid Reading flagged as derived, not measured.
func NewDerivedReading(metric MetricID, at time.Time, value float64, unit string) Reading {
	r := NewReading(metric, at, value, unit)
	r.Derived = true
	return r
}

// NewInvalidReading returns the sentinel written when a source is
// unavailable. It carries no numeric value.
func NewInvalidReading(metric MetricID, at time.Time) Reading {
	return Reading{
		Metric: metric,
		At:     at,
	}
}

// DefaultNoiseFloorDBm is the assumed noise floor used to estimate SNR when
// the driver only exposes a signal percentage.
const DefaultNoiseFloorDBm = -90

// RSSIFromPercent maps a driver signal percentage to an estimated dBm value
// using the conventional linear mapping (100% ~ -50 dBm, 0% ~ -100 dBm).
// The result truncates toward zero, so 55% maps to -72.
func RSSIFromPercent(pct int) int {
	return int(float64(pct)/2 - 100)
}

// SNRFromRSSI estimates the signal-to-noise ratio in dB against a fixed
// noise floor. The result is an estimate and must be flagged as derived.
func SNRFromRSSI(rssiDBm, noiseFloorDBm int) int {
	return rssiDBm - noiseFloorDBm
}

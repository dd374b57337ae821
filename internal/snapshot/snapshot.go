// Package snapshot assembles point-in-time views of the collected
// diagnostics for consumers such as the HTTP API. A view is built by
// reading each series under its own lock; cross-metric skew within one
// view is accepted.
package snapshot

import (
	"time"

	"github.com/hostdiag/wifiradar/internal/history"
	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/optional"
	"github.com/hostdiag/wifiradar/internal/quality"
)

// Link is the connection state inside a [Diagnostics] view.
type Link struct {
	model.LinkInfo

	// At is when the link was last read.
	At time.Time `json:"at"`

	// Stale means the report is older than the staleness bound.
	Stale bool `json:"stale"`
}

// Metric is the view of one metric: its newest reading, the quality
// tier of that reading, and the in-window trail.
type Metric struct {
	// Latest is the newest reading, absent when never sampled.
	Latest *model.Reading `json:"latest,omitempty"`

	// Tier grades Latest.
	Tier model.QualityTier `json:"tier"`

	// History is the in-window trail, oldest first. Latest-only
	// metrics have none.
	History []model.Reading `json:"history,omitempty"`
}

// Diagnostics is the full connection-quality view.
type Diagnostics struct {
	// TakenAt is when this view was assembled.
	TakenAt time.Time `json:"taken_at"`

	// Link is the current association, absent before the first
	// link read.
	Link *Link `json:"link,omitempty"`

	// Metrics holds every known metric, sampled or not.
	Metrics map[model.MetricID]Metric `json:"metrics"`

	// SpeedTest is the most recent completed run, if any.
	SpeedTest *model.SpeedTestResult `json:"speedtest,omitempty"`
}

// NetworkList is the nearby-networks view.
type NetworkList struct {
	// Networks holds the latest scan outcome, one entry per SSID.
	Networks []model.NetworkEntry `json:"networks"`

	// ScannedAt is when the scan ran, zero before the first one.
	ScannedAt time.Time `json:"scanned_at"`

	// Stale means the scan is older than the staleness bound, or
	// never happened.
	Stale bool `json:"stale"`
}

// Builder assembles views from the store and the latest-value cells.
// All fields must be set before use.
type Builder struct {
	// Store is the metric history.
	Store *history.Store

	// Link is the latest link report cell.
	Link *history.Cell[model.LinkReport]

	// Scan is the latest scan report cell.
	Scan *history.Cell[model.ScanReport]

	// SpeedTest is the latest speed-test result cell.
	SpeedTest *history.Cell[model.SpeedTestResult]

	// Window clips metric history.
	Window time.Duration

	// LinkStaleAfter bounds the age of a fresh link report.
	LinkStaleAfter time.Duration

	// ScanStaleAfter bounds the age of a fresh scan report.
	ScanStaleAfter time.Duration
}

// Diagnostics builds the connection-quality view.
func (b *Builder) Diagnostics() Diagnostics {
	now := time.Now()
	view := Diagnostics{
		TakenAt: now,
		Metrics: make(map[model.MetricID]Metric, len(b.Store.Metrics())),
	}

	cutoff := now.Add(-b.Window)
	for _, id := range b.Store.Metrics() {
		metric := Metric{Tier: model.TierUnknown}
		if latest := b.Store.Latest(id); !latest.IsNone() {
			reading := latest.Unwrap()
			metric.Latest = &reading
			metric.Tier = quality.Score(reading)
		}
		if hasHistory(id) {
			metric.History = b.Store.Since(id, cutoff)
		}
		view.Metrics[id] = metric
	}

	if report := b.Link.Load(); !report.IsNone() {
		rep := report.Unwrap()
		view.Link = &Link{
			LinkInfo: rep.Link,
			At:       rep.At,
			Stale:    now.Sub(rep.At) > b.LinkStaleAfter,
		}
	}
	if last := b.SpeedTest.Load(); !last.IsNone() {
		result := last.Unwrap()
		view.SpeedTest = &result
	}
	return view
}

// Networks builds the nearby-networks view. The entry matching the
// current association is flagged as connected.
func (b *Builder) Networks() NetworkList {
	report := b.Scan.Load()
	if report.IsNone() {
		return NetworkList{Networks: []model.NetworkEntry{}, Stale: true}
	}
	rep := report.Unwrap()

	// Copy before mutating: the cell may hand the same report to
	// concurrent builds.
	networks := make([]model.NetworkEntry, len(rep.Networks))
	copy(networks, rep.Networks)
	markConnected(networks, b.Link.Load())

	return NetworkList{
		Networks:  networks,
		ScannedAt: rep.At,
		Stale:     time.Since(rep.At) > b.ScanStaleAfter,
	}
}

// markConnected flags the scan entry the host is associated with,
// matching by BSSID and falling back to SSID when scan dedup kept a
// sibling access point of the same network.
func markConnected(networks []model.NetworkEntry, link optional.Value[model.LinkReport]) {
	if link.IsNone() {
		return
	}
	current := link.Unwrap().Link
	if !current.Connected {
		return
	}
	for i := range networks {
		networks[i].Connected = (networks[i].BSSID != "" && networks[i].BSSID == current.BSSID) ||
			networks[i].SSID == current.SSID
	}
}

func hasHistory(id model.MetricID) bool {
	for _, h := range model.HistoryMetrics() {
		if h == id {
			return true
		}
	}
	return false
}

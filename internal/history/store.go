// Package history implements the rolling in-memory store that keeps
// the recent readings of every metric series.
package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/optional"
	"github.com/hostdiag/wifiradar/internal/runtimex"
)

var (
	// ErrUnknownMetric indicates the store has no series for the metric.
	ErrUnknownMetric = errors.New("history: unknown metric")

	// ErrStaleReading indicates a reading not newer than the series tail.
	ErrStaleReading = errors.New("history: reading is not newer than the latest")
)

// series is a fixed-capacity ring of readings. Appends past capacity
// overwrite the oldest entry.
type series struct {
	// mu protects all the fields below.
	mu sync.Mutex

	// buf is the ring buffer, sized once at construction.
	buf []model.Reading

	// start is the index of the oldest entry.
	start int

	// count is the number of occupied slots.
	count int
}

func newSeries(capacity int) *series {
	return &series{
		mu:    sync.Mutex{},
		buf:   make([]model.Reading, capacity),
		start: 0,
		count: 0,
	}
}

// append stores the reading, overwriting the oldest entry when the
// ring is full. Readings must be strictly newer than the series tail.
func (s *series) append(r model.Reading) error {
	defer s.mu.Unlock()
	s.mu.Lock()
	if s.count > 0 {
		tail := s.buf[(s.start+s.count-1)%len(s.buf)]
		if !r.At.After(tail.At) {
			return fmt.Errorf("%w: %s", ErrStaleReading, r.Metric)
		}
	}
	if s.count < len(s.buf) {
		s.buf[(s.start+s.count)%len(s.buf)] = r
		s.count++
		return nil
	}
	s.buf[s.start] = r
	s.start = (s.start + 1) % len(s.buf)
	return nil
}

// latest returns the newest reading, if any.
func (s *series) latest() optional.Value[model.Reading] {
	defer s.mu.Unlock()
	s.mu.Lock()
	if s.count == 0 {
		return optional.None[model.Reading]()
	}
	return optional.Some(s.buf[(s.start+s.count-1)%len(s.buf)])
}

// snapshot copies out the occupied slots, oldest first.
func (s *series) snapshot() []model.Reading {
	defer s.mu.Unlock()
	s.mu.Lock()
	out := make([]model.Reading, 0, s.count)
	for i := 0; i < s.count; i++ {
		out = append(out, s.buf[(s.start+i)%len(s.buf)])
	}
	return out
}

// Store keeps one rolling series per metric. Each series has its own
// lock, so concurrent appends to distinct metrics never contend and no
// store-wide lock is ever held while a sampler is collecting.
type Store struct {
	// capacity is the per-series ring size.
	capacity int

	// order preserves the construction order of the metrics.
	order []model.MetricID

	// series maps a metric to its ring. Immutable after construction.
	series map[model.MetricID]*series
}

// New creates a [Store] with one ring of the given capacity per metric.
func New(capacity int, metrics []model.MetricID) *Store {
	runtimex.Assert(capacity > 0, "history: capacity must be positive")
	runtimex.Assert(len(metrics) > 0, "history: need at least one metric")
	all := make(map[model.MetricID]*series, len(metrics))
	order := make([]model.MetricID, 0, len(metrics))
	for _, id := range metrics {
		if _, found := all[id]; found {
			continue
		}
		all[id] = newSeries(capacity)
		order = append(order, id)
	}
	return &Store{
		capacity: capacity,
		order:    order,
		series:   all,
	}
}

// Append stores a reading into its series. It fails when the metric is
// unknown or the reading is not strictly newer than the series tail.
func (st *Store) Append(r model.Reading) error {
	s, found := st.series[r.Metric]
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, r.Metric)
	}
	return s.append(r)
}

// Latest returns the newest reading of the given metric, if any.
func (st *Store) Latest(id model.MetricID) optional.Value[model.Reading] {
	s, found := st.series[id]
	if !found {
		return optional.None[model.Reading]()
	}
	return s.latest()
}

// Since returns the readings of the given metric taken at or after the
// given instant, oldest first.
func (st *Store) Since(id model.MetricID, t time.Time) []model.Reading {
	s, found := st.series[id]
	if !found {
		return nil
	}
	all := s.snapshot()
	for i, r := range all {
		if !r.At.Before(t) {
			return all[i:]
		}
	}
	return []model.Reading{}
}

// All returns every retained reading of the given metric, oldest first.
func (st *Store) All(id model.MetricID) []model.Reading {
	s, found := st.series[id]
	if !found {
		return nil
	}
	return s.snapshot()
}

// Cap returns the per-series ring capacity.
func (st *Store) Cap() int {
	return st.capacity
}

// Metrics returns the tracked metrics in construction order.
func (st *Store) Metrics() []model.MetricID {
	out := make([]model.MetricID, len(st.order))
	copy(out, st.order)
	return out
}

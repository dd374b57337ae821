package history

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hostdiag/wifiradar/internal/model"
)

var baseTime = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func reading(id model.MetricID, sec int, value float64) model.Reading {
	return model.NewReading(id, baseTime.Add(time.Duration(sec)*time.Second), value, model.UnitMillis)
}

func TestStoreAppendAndLatest(t *testing.T) {
	st := New(8, []model.MetricID{model.MetricRouterPing})

	t.Run("empty series has no latest", func(t *testing.T) {
		if !st.Latest(model.MetricRouterPing).IsNone() {
			t.Fatal("expected no latest reading")
		}
	})

	t.Run("latest tracks the newest append", func(t *testing.T) {
		first := reading(model.MetricRouterPing, 0, 10)
		second := reading(model.MetricRouterPing, 2, 20)
		if err := st.Append(first); err != nil {
			t.Fatal(err)
		}
		if err := st.Append(second); err != nil {
			t.Fatal(err)
		}
		got := st.Latest(model.MetricRouterPing)
		if got.IsNone() {
			t.Fatal("expected a latest reading")
		}
		if diff := cmp.Diff(second, got.Unwrap()); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestStoreRingOverwrite(t *testing.T) {
	st := New(3, []model.MetricID{model.MetricRouterPing})
	for sec := 0; sec < 4; sec++ {
		if err := st.Append(reading(model.MetricRouterPing, sec, float64(sec))); err != nil {
			t.Fatal(err)
		}
	}
	want := []model.Reading{
		reading(model.MetricRouterPing, 1, 1),
		reading(model.MetricRouterPing, 2, 2),
		reading(model.MetricRouterPing, 3, 3),
	}
	if diff := cmp.Diff(want, st.All(model.MetricRouterPing)); diff != "" {
		t.Fatal(diff)
	}
	if st.Cap() != 3 {
		t.Fatalf("Cap() = %d, want 3", st.Cap())
	}
}

func TestStoreUnknownMetric(t *testing.T) {
	st := New(4, []model.MetricID{model.MetricRouterPing})
	err := st.Append(reading(model.MetricDNSLookup, 0, 12))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("got %v, want ErrUnknownMetric", err)
	}
	if !st.Latest(model.MetricDNSLookup).IsNone() {
		t.Fatal("expected no latest for unknown metric")
	}
	if got := st.Since(model.MetricDNSLookup, baseTime); got != nil {
		t.Fatalf("Since() = %v, want nil", got)
	}
}

func TestStoreRejectsStaleReadings(t *testing.T) {
	st := New(4, []model.MetricID{model.MetricRouterPing})
	if err := st.Append(reading(model.MetricRouterPing, 5, 1)); err != nil {
		t.Fatal(err)
	}

	t.Run("same timestamp as the tail", func(t *testing.T) {
		err := st.Append(reading(model.MetricRouterPing, 5, 2))
		if !errors.Is(err, ErrStaleReading) {
			t.Fatalf("got %v, want ErrStaleReading", err)
		}
	})

	t.Run("earlier than the tail", func(t *testing.T) {
		err := st.Append(reading(model.MetricRouterPing, 3, 2))
		if !errors.Is(err, ErrStaleReading) {
			t.Fatalf("got %v, want ErrStaleReading", err)
		}
	})

	t.Run("series is unchanged", func(t *testing.T) {
		if got := len(st.All(model.MetricRouterPing)); got != 1 {
			t.Fatalf("series has %d readings, want 1", got)
		}
	})
}

func TestStoreSince(t *testing.T) {
	st := New(8, []model.MetricID{model.MetricRouterPing})
	for sec := 0; sec < 5; sec++ {
		if err := st.Append(reading(model.MetricRouterPing, sec, float64(sec))); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("cutoff inside the series", func(t *testing.T) {
		got := st.Since(model.MetricRouterPing, baseTime.Add(2*time.Second))
		if len(got) != 3 {
			t.Fatalf("got %d readings, want 3", len(got))
		}
		if got[0].Value != 2 {
			t.Fatalf("first value = %v, want 2", got[0].Value)
		}
	})

	t.Run("cutoff after the series", func(t *testing.T) {
		got := st.Since(model.MetricRouterPing, baseTime.Add(time.Hour))
		if got == nil || len(got) != 0 {
			t.Fatalf("got %v, want empty slice", got)
		}
	})

	t.Run("zero cutoff returns everything", func(t *testing.T) {
		got := st.Since(model.MetricRouterPing, time.Time{})
		if len(got) != 5 {
			t.Fatalf("got %d readings, want 5", len(got))
		}
	})
}

func TestStoreKeepsInvalidReadings(t *testing.T) {
	st := New(4, []model.MetricID{model.MetricDNSLookup})
	if err := st.Append(reading(model.MetricDNSLookup, 0, 33)); err != nil {
		t.Fatal(err)
	}
	sentinel := model.NewInvalidReading(model.MetricDNSLookup, baseTime.Add(2*time.Second))
	if err := st.Append(sentinel); err != nil {
		t.Fatal(err)
	}
	got := st.Latest(model.MetricDNSLookup)
	if got.IsNone() || got.Unwrap().Valid {
		t.Fatal("expected the invalid sentinel as latest")
	}
	if len(st.All(model.MetricDNSLookup)) != 2 {
		t.Fatal("sentinel must occupy a ring slot")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	metrics := []model.MetricID{model.MetricRouterPing, model.MetricDNSLookup, model.MetricSignalPercent}
	st := New(16, metrics)
	wg := &sync.WaitGroup{}
	for idx, id := range metrics {
		wg.Add(1)
		go func(id model.MetricID, offset int) {
			defer wg.Done()
			for sec := 0; sec < 32; sec++ {
				_ = st.Append(reading(id, offset+sec, float64(sec)))
			}
		}(id, idx*100)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 64; i++ {
				for _, id := range metrics {
					_ = st.Latest(id)
					_ = st.Since(id, baseTime)
				}
			}
		}()
	}
	wg.Wait()
	for _, id := range metrics {
		if got := len(st.All(id)); got != 16 {
			t.Fatalf("series %s has %d readings, want 16", id, got)
		}
	}
}

func TestCell(t *testing.T) {
	var cell Cell[model.SpeedTestResult]

	t.Run("empty cell loads none", func(t *testing.T) {
		if !cell.Load().IsNone() {
			t.Fatal("expected empty cell")
		}
	})

	t.Run("store then load", func(t *testing.T) {
		cell.Store(model.SpeedTestResult{ID: "abc", DownloadMbps: 93.5})
		got := cell.Load()
		if got.IsNone() {
			t.Fatal("expected a value")
		}
		if got.Unwrap().ID != "abc" {
			t.Fatalf("ID = %q, want %q", got.Unwrap().ID, "abc")
		}
	})

	t.Run("store replaces the value", func(t *testing.T) {
		cell.Store(model.SpeedTestResult{ID: "def"})
		if got := cell.Load().Unwrap().ID; got != "def" {
			t.Fatalf("ID = %q, want %q", got, "def")
		}
	})
}

package sockstat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hostdiag/wifiradar/internal/model"
)

type fakeRunner struct {
	out string
	err error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return r.out, r.err
}

const netstatFixture = `
Active Connections

  Proto  Local Address          Foreign Address        State
  TCP    127.0.0.1:49200        127.0.0.1:8000         ESTABLISHED
  TCP    192.168.1.10:49876     140.82.112.26:443      ESTABLISHED
  TCP    192.168.1.10:49880     151.101.1.140:443      CLOSE_WAIT
  TCP    192.168.1.10:49910     13.107.42.16:443       TIME_WAIT
  TCP    192.168.1.10:49911     13.107.42.16:443       TIME_WAIT
  TCP    192.168.1.10:49920     52.97.146.162:443      SYN_SENT
`

func TestParseCounts(t *testing.T) {
	got := parseCounts(netstatFixture)
	want := Counts{
		Established: 2,
		CloseWait:   1,
		TimeWait:    2,
		Total:       5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseCountsEmptyOutput(t *testing.T) {
	got := parseCounts("")
	if got.Total != 0 {
		t.Fatalf("got %+v, want zero counts", got)
	}
}

func TestParseCountsLowercaseStates(t *testing.T) {
	raw := "tcp4  0  0  10.0.0.5.52100  1.1.1.1.443  established\n"
	got := parseCounts(raw)
	if got.Established != 1 || got.Total != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestClientCounts(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := NewWithRunner(model.NewTestLogger(), &fakeRunner{out: netstatFixture})
		got, err := client.Counts(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got.Total != 5 {
			t.Fatalf("Total = %d, want 5", got.Total)
		}
	})

	t.Run("runner failure", func(t *testing.T) {
		client := NewWithRunner(model.NewTestLogger(), &fakeRunner{err: errors.New("boom")})
		if _, err := client.Counts(context.Background()); !errors.Is(err, ErrQueryFailed) {
			t.Fatalf("got %v, want ErrQueryFailed", err)
		}
	})
}

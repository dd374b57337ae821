package speedtest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProberDownload(t *testing.T) {
	payload := make([]byte, 256*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("user agent = %q, want %q", ua, userAgent)
		}
		w.Write(payload)
	}))
	defer srv.Close()

	prober := NewHTTPProber(srv.URL+"/down", srv.URL+"/up", 1024)
	tr, err := prober.Download(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tr.Bytes != int64(len(payload)) {
		t.Fatalf("bytes = %d, want %d", tr.Bytes, len(payload))
	}
	if tr.Elapsed <= 0 {
		t.Fatal("elapsed must be positive")
	}
}

func TestHTTPProberDownloadBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	prober := NewHTTPProber(srv.URL, srv.URL, 1024)
	if _, err := prober.Download(context.Background()); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("got %v, want ErrUnreachable", err)
	}
}

func TestHTTPProberUpload(t *testing.T) {
	received := make(chan int64, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("content type = %q", ct)
		}
		n, _ := io.Copy(io.Discard, r.Body)
		received <- n
	}))
	defer srv.Close()

	prober := NewHTTPProber(srv.URL+"/down", srv.URL+"/up", 4096)
	tr, err := prober.Upload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tr.Bytes != 4096 {
		t.Fatalf("bytes = %d, want 4096", tr.Bytes)
	}
	if n := <-received; n != 4096 {
		t.Fatalf("endpoint received %d bytes, want 4096", n)
	}
}

// A dead endpoint must produce a prompt, classified error rather than
// an indefinite hang.
func TestHTTPProberDeadEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	prober := NewHTTPProber(srv.URL, srv.URL, 1024)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_, err := prober.Download(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrUnreachable) && !errors.Is(err, ErrStalled) {
		t.Fatalf("got unclassified error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("failure took %s, want a prompt one", elapsed)
	}
}

func TestHTTPProberStalledTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the response until the client gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	prober := NewHTTPProber(srv.URL, srv.URL, 1024)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := prober.Download(ctx); !errors.Is(err, ErrStalled) {
		t.Fatalf("got %v, want ErrStalled", err)
	}
}

package speedtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// userAgent identifies us to the measurement endpoint.
const userAgent = "wifiradar/1.0"

// HTTPProber measures against a plain request/response endpoint such
// as the Cloudflare speed service: one sized GET for download, one
// sized POST for upload.
type HTTPProber struct {
	// client is the HTTP client to use.
	client *http.Client

	// downloadURL serves a fixed-size payload.
	downloadURL string

	// uploadURL accepts an arbitrary payload.
	uploadURL string

	// uploadBytes is the upload payload size.
	uploadBytes int64
}

var _ Prober = &HTTPProber{}

// NewHTTPProber creates an [HTTPProber] for the given endpoint pair.
func NewHTTPProber(downloadURL, uploadURL string, uploadBytes int64) *HTTPProber {
	return &HTTPProber{
		client:      &http.Client{},
		downloadURL: downloadURL,
		uploadURL:   uploadURL,
		uploadBytes: uploadBytes,
	}
}

// Name implements [Prober].
func (p *HTTPProber) Name() string {
	return "http"
}

// Download implements [Prober]. The payload is streamed and discarded;
// the measured time covers the request and the full body.
func (p *HTTPProber) Download(ctx context.Context) (Transfer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.downloadURL, nil)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Transfer{}, classify("download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Transfer{}, fmt.Errorf("%w: download: unexpected status %d", ErrUnreachable, resp.StatusCode)
	}
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return Transfer{}, classify("download", err)
	}
	return Transfer{Bytes: n, Elapsed: time.Since(start)}, nil
}

// Upload implements [Prober]. The payload is all zeros; endpoints
// measure arrival rate, not content.
func (p *HTTPProber) Upload(ctx context.Context) (Transfer, error) {
	payload := make([]byte, p.uploadBytes)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, bytes.NewReader(payload))
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/octet-stream")
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Transfer{}, classify("upload", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return Transfer{}, classify("upload", err)
	}
	return Transfer{Bytes: p.uploadBytes, Elapsed: time.Since(start)}, nil
}

// classify tells a transfer that ran out of time apart from an
// endpoint that never answered.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %s", ErrStalled, op, err)
	}
	return fmt.Errorf("%w: %s: %s", ErrUnreachable, op, err)
}

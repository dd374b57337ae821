package speedtest

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-lab/ndt7-client-go"
	"github.com/m-lab/ndt7-client-go/spec"
)

const (
	// ndt7ClientName and ndt7ClientVersion identify us to the server.
	ndt7ClientName    = "wifiradar-ndt7-client"
	ndt7ClientVersion = "1.0.0"

	// ndt7HandshakeTimeout bounds the websocket upgrade.
	ndt7HandshakeTimeout = 10 * time.Second
)

// NDT7Prober measures against an ndt7 server over websockets. With an
// empty server the client asks the locate service for a nearby one.
type NDT7Prober struct {
	// server is the "host:port" to measure against, may be empty.
	server string
}

var _ Prober = &NDT7Prober{}

// NewNDT7Prober creates an [NDT7Prober] for the given server.
func NewNDT7Prober(server string) *NDT7Prober {
	return &NDT7Prober{server: server}
}

// Name implements [Prober].
func (p *NDT7Prober) Name() string {
	return "ndt7"
}

// newClient builds a fresh ndt7 client; the client tracks per-run
// state such as the discovered server FQDN.
func (p *NDT7Prober) newClient() *ndt7.Client {
	client := ndt7.NewClient(ndt7ClientName, ndt7ClientVersion)
	client.Server = p.server
	client.Dialer = websocket.Dialer{
		HandshakeTimeout: ndt7HandshakeTimeout,
	}
	return client
}

// Download implements [Prober].
func (p *NDT7Prober) Download(ctx context.Context) (Transfer, error) {
	client := p.newClient()
	ch, err := client.StartDownload(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: download: %s", ErrUnreachable, err)
	}
	return drain(ch, "download")
}

// Upload implements [Prober].
func (p *NDT7Prober) Upload(ctx context.Context) (Transfer, error) {
	client := p.newClient()
	ch, err := client.StartUpload(ctx)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: upload: %s", ErrUnreachable, err)
	}
	return drain(ch, "upload")
}

// drain consumes the measurement stream and keeps the last client-side
// application-level counters, which carry the transferred bytes and
// the elapsed time in microseconds.
func drain(ch <-chan spec.Measurement, op string) (Transfer, error) {
	var last spec.AppInfo
	for m := range ch {
		if m.Origin != spec.OriginClient || m.AppInfo == nil {
			continue
		}
		last = *m.AppInfo
	}
	if last.ElapsedTime <= 0 {
		return Transfer{}, fmt.Errorf("%w: %s: no data transferred", ErrStalled, op)
	}
	return Transfer{
		Bytes:   last.NumBytes,
		Elapsed: time.Duration(last.ElapsedTime) * time.Microsecond,
	}, nil
}

// Package pingx implements one-shot ICMP echo measurements against an
// IPv4 target, using unprivileged datagram sockets.
package pingx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	// defaultTimeout bounds a ping when the context carries no deadline.
	defaultTimeout = 10 * time.Second

	// maxReply is the receive buffer size for echo replies.
	maxReply = 1500

	// protocolICMP is the IANA protocol number of IPv4 ICMP.
	protocolICMP = 1
)

var (
	// ErrResolve indicates the target host could not be resolved.
	ErrResolve = errors.New("pingx: cannot resolve host")

	// ErrSocket indicates we could not open or use the ICMP socket.
	ErrSocket = errors.New("pingx: cannot use icmp socket")

	// ErrUnreachable indicates the network rejected the echo request.
	ErrUnreachable = errors.New("pingx: destination unreachable")

	// ErrTimeout indicates no reply arrived before the deadline.
	ErrTimeout = errors.New("pingx: no reply before deadline")
)

// Pinger sends a single echo request per [Pinger.Ping] call. It is
// safe for concurrent use.
type Pinger struct {
	// id is the echo identifier attached to requests.
	id int

	// seq is the monotonically increasing sequence counter.
	seq uint32

	// payload is the echo payload used to match replies.
	payload []byte
}

// New creates a [Pinger] with a process-derived echo identifier.
func New() *Pinger {
	return &Pinger{
		id:      os.Getpid() & 0xffff,
		seq:     0,
		payload: []byte("wifiradar echo probe"),
	}
}

// Ping sends one echo request to host and returns the round trip time
// of the matching reply. The context deadline bounds the whole call.
func (p *Pinger) Ping(ctx context.Context, host string) (time.Duration, error) {
	ip, err := p.resolve(ctx, host)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrResolve, err)
	}
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSocket, err)
	}
	defer conn.Close()
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSocket, err)
	}
	seq := int(atomic.AddUint32(&p.seq, 1) & 0xffff)
	request := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: p.payload,
		},
	}
	wire, err := request.Marshal(nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSocket, err)
	}
	start := time.Now()
	if _, err := conn.WriteTo(wire, &net.UDPAddr{IP: ip}); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	buf := make([]byte, maxReply)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return 0, fmt.Errorf("%w: %s", ErrTimeout, host)
			}
			return 0, fmt.Errorf("%w: %s", ErrSocket, err)
		}
		matched, err := p.processReply(buf[:n], seq)
		if err != nil {
			return 0, err
		}
		if matched {
			return time.Since(start), nil
		}
	}
}

// processReply parses one received datagram and reports whether it is
// the echo reply matching seq. Unrelated traffic returns false so the
// caller keeps reading until its deadline.
func (p *Pinger) processReply(data []byte, seq int) (bool, error) {
	msg, err := icmp.ParseMessage(protocolICMP, data)
	if err != nil {
		return false, nil
	}
	switch msg.Type {
	case ipv4.ICMPTypeEchoReply:
		echo, ok := msg.Body.(*icmp.Echo)
		if !ok {
			return false, nil
		}
		// The kernel rewrites the echo identifier on datagram
		// sockets, so match on sequence and payload instead.
		if echo.Seq != seq || !bytes.Equal(echo.Data, p.payload) {
			return false, nil
		}
		return true, nil
	case ipv4.ICMPTypeDestinationUnreachable:
		return false, fmt.Errorf("%w: %s", ErrUnreachable, "icmp unreachable")
	default:
		return false, nil
	}
}

// resolve turns host into an IPv4 address, accepting literals directly.
func (p *Pinger) resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
		return nil, errors.New("not an IPv4 address")
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		if ip4 := addr.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, errors.New("no IPv4 address for host")
}

// Package sockstat counts the host TCP connections by state.
package sockstat

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hostdiag/wifiradar/internal/cmdx"
	"github.com/hostdiag/wifiradar/internal/model"
)

// netstatCommand is the platform socket-table utility.
const netstatCommand = "netstat"

var (
	// ErrNotAvailable indicates the socket-table utility is not installed.
	ErrNotAvailable = errors.New("sockstat: utility not available")

	// ErrQueryFailed indicates the socket table could not be read.
	ErrQueryFailed = errors.New("sockstat: query failed")
)

// Counts holds the per-state TCP connection tallies of one query.
type Counts struct {
	// Established counts connections in the ESTABLISHED state.
	Established int `json:"established"`

	// CloseWait counts connections in the CLOSE_WAIT state.
	CloseWait int `json:"close_wait"`

	// TimeWait counts connections in the TIME_WAIT state.
	TimeWait int `json:"time_wait"`

	// Total is the sum of the tracked states.
	Total int `json:"total"`
}

// Client runs and parses the socket-table utility. Construct with [New].
type Client struct {
	// logger is the logger to use.
	logger model.Logger

	// runner executes external commands.
	runner cmdx.Runner
}

// New creates a [Client] using the given logger.
func New(logger model.Logger) *Client {
	return NewWithRunner(logger, cmdx.ExecRunner{})
}

// NewWithRunner creates a [Client] with an explicit command runner.
func NewWithRunner(logger model.Logger, runner cmdx.Runner) *Client {
	return &Client{
		logger: logger,
		runner: runner,
	}
}

// Available reports whether the socket-table utility can be found in PATH.
func (c *Client) Available() error {
	if _, err := exec.LookPath(netstatCommand); err != nil {
		return fmt.Errorf("%w: %s", ErrNotAvailable, err)
	}
	return nil
}

// Counts queries the socket table and tallies TCP connections by state.
func (c *Client) Counts(ctx context.Context) (Counts, error) {
	out, err := c.runner.Run(ctx, netstatCommand, "-n", "-p", "tcp")
	if err != nil {
		return Counts{}, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}
	return parseCounts(out), nil
}

// parseCounts tallies connection states line by line. The match is on
// the state token alone, so the output flavor does not matter.
func parseCounts(raw string) Counts {
	var counts Counts
	for _, line := range strings.Split(raw, "\n") {
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "ESTABLISHED"):
			counts.Established++
		case strings.Contains(upper, "CLOSE_WAIT"):
			counts.CloseWait++
		case strings.Contains(upper, "TIME_WAIT"):
			counts.TimeWait++
		}
	}
	counts.Total = counts.Established + counts.CloseWait + counts.TimeWait
	return counts
}

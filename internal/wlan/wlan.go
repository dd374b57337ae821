// Package wlan acquires wireless link state and nearby network scans
// from the platform wlan utility.
package wlan

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hostdiag/wifiradar/internal/cmdx"
	"github.com/hostdiag/wifiradar/internal/model"
)

const (
	// netshCommand is the platform wlan utility.
	netshCommand = "netsh"

	// hiddenSSID labels networks that do not broadcast a name.
	hiddenSSID = "Hidden"

	// band24GHz and band5GHz are the reported frequency bands.
	band24GHz = "2.4 GHz"
	band5GHz  = "5 GHz"
)

var (
	// ErrNotAvailable indicates the wlan utility is not installed.
	ErrNotAvailable = errors.New("wlan: utility not available")

	// ErrScanFailed indicates the network scan could not run.
	ErrScanFailed = errors.New("wlan: scan failed")

	// ErrQueryFailed indicates the interface query could not run.
	ErrQueryFailed = errors.New("wlan: interface query failed")
)

// Client runs and parses the platform wlan utility. Construct with [New].
type Client struct {
	// logger is the logger to use.
	logger model.Logger

	// noiseDBm is the assumed noise floor for SNR estimates.
	noiseDBm int

	// runner executes external commands.
	runner cmdx.Runner
}

// New creates a [Client] using the given logger and noise floor.
func New(logger model.Logger, noiseDBm int) *Client {
	return NewWithRunner(logger, noiseDBm, cmdx.ExecRunner{})
}

// NewWithRunner creates a [Client] with an explicit command runner.
func NewWithRunner(logger model.Logger, noiseDBm int, runner cmdx.Runner) *Client {
	return &Client{
		logger:   logger,
		noiseDBm: noiseDBm,
		runner:   runner,
	}
}

// Available reports whether the wlan utility can be found in PATH.
func (c *Client) Available() error {
	if _, err := exec.LookPath(netshCommand); err != nil {
		return fmt.Errorf("%w: %s", ErrNotAvailable, err)
	}
	return nil
}

// Scan lists the networks currently in range, one entry per logical
// network. Access points broadcasting several BSSIDs are collapsed to
// the strongest one.
func (c *Client) Scan(ctx context.Context) ([]model.NetworkEntry, error) {
	out, err := c.runner.Run(ctx, netshCommand, "wlan", "show", "networks", "mode=bssid")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScanFailed, err)
	}
	entries := dedupBySSID(parseNetworks(out))
	c.logger.Debugf("wlan: scan found %d networks", len(entries))
	return entries, nil
}

// Interface returns the state of the wireless interface, including the
// derived signal estimates.
func (c *Client) Interface(ctx context.Context) (model.LinkInfo, error) {
	out, err := c.runner.Run(ctx, netshCommand, "wlan", "show", "interfaces")
	if err != nil {
		return model.LinkInfo{}, fmt.Errorf("%w: %s", ErrQueryFailed, err)
	}
	return parseInterface(out, c.noiseDBm), nil
}

// cutKV splits a "key : value" line from the wlan utility output. The
// value may itself contain colons, as hardware addresses do.
func cutKV(line string) (key string, value string, ok bool) {
	key, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// parseNetworks parses the output of the networks scan. Every SSID can
// expose multiple BSSIDs; we emit one entry per BSSID and leave the
// collapsing to [dedupBySSID].
func parseNetworks(raw string) []model.NetworkEntry {
	var (
		networks []model.NetworkEntry
		ssid     = hiddenSSID
		current  *model.NetworkEntry
	)
	flush := func() {
		if current != nil && current.BSSID != "" {
			networks = append(networks, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := cutKV(line)
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(key, "SSID"):
			flush()
			ssid = value
			if ssid == "" {
				ssid = hiddenSSID
			}
		case strings.HasPrefix(key, "BSSID"):
			flush()
			current = &model.NetworkEntry{
				SSID:          ssid,
				BSSID:         value,
				SignalPercent: 0,
				RSSI:          -100,
				Channel:       0,
				Connected:     false,
			}
		case key == "Signal" && current != nil:
			if pct, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil {
				current.SignalPercent = pct
				current.RSSI = model.RSSIFromPercent(pct)
			}
		case key == "Channel" && current != nil:
			if ch, err := strconv.Atoi(value); err == nil {
				current.Channel = ch
			}
		}
	}
	flush()
	return networks
}

// dedupBySSID keeps the strongest entry per network name. Routers often
// broadcast one BSSID per band plus mesh nodes; the radar shows one
// blip per logical network.
func dedupBySSID(entries []model.NetworkEntry) []model.NetworkEntry {
	index := make(map[string]int, len(entries))
	out := make([]model.NetworkEntry, 0, len(entries))
	for _, entry := range entries {
		at, found := index[entry.SSID]
		if !found {
			index[entry.SSID] = len(out)
			out = append(out, entry)
			continue
		}
		if entry.RSSI > out[at].RSSI {
			out[at] = entry
		}
	}
	return out
}

// parseInterface parses the output of the interfaces query. When the
// utility reports several interfaces only the first one counts.
func parseInterface(raw string, noiseDBm int) model.LinkInfo {
	info := model.LinkInfo{
		RSSIdBm:  -100,
		NoiseDBm: noiseDBm,
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := cutKV(line)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		switch {
		case key == "State":
			lower := strings.ToLower(value)
			info.Connected = strings.Contains(lower, "connected") &&
				!strings.Contains(lower, "disconnected")
		case key == "SSID":
			info.SSID = value
		case key == "BSSID":
			info.BSSID = value
		case key == "Channel":
			if ch, err := strconv.Atoi(value); err == nil {
				info.Channel = ch
			}
		case key == "Radio type":
			info.RadioType = value
		case key == "Authentication":
			info.Auth = value
		case key == "Signal":
			if pct, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil {
				info.SignalPercent = pct
				info.RSSIdBm = model.RSSIFromPercent(pct)
				info.SNRdB = model.SNRFromRSSI(info.RSSIdBm, noiseDBm)
			}
		case strings.HasPrefix(key, "Receive rate"):
			if rate, err := strconv.ParseFloat(value, 64); err == nil {
				info.RxRateMbps = rate
			}
		case strings.HasPrefix(key, "Transmit rate"):
			if rate, err := strconv.ParseFloat(value, 64); err == nil {
				info.TxRateMbps = rate
			}
		}
	}
	info.Band = bandForRadio(info.RadioType, info.Channel)
	return info
}

// bandForRadio infers the frequency band from the radio generation,
// refined by the channel number since channels above 14 are 5 GHz.
func bandForRadio(radioType string, channel int) string {
	if radioType == "" {
		return ""
	}
	band := band24GHz
	if strings.Contains(radioType, "802.11a") || strings.Contains(radioType, "802.11be") {
		band = band5GHz
	}
	if channel > 14 {
		band = band5GHz
	}
	return band
}

package model

import "time"

// NetworkEntry is one access point seen by a scan cycle. Entries are
// produced fresh on every scan; only the BSSID is meaningful across cycles,
// and only to highlight the currently connected network.
type NetworkEntry struct {
	// SSID is the advertised network name, "Hidden" when not broadcast.
	SSID string `json:"ssid"`

	// BSSID is the access point hardware address.
	BSSID string `json:"bssid"`

	// SignalPercent is the driver-reported signal quality (0-100).
	SignalPercent int `json:"signal_percent"`

	// RSSI is the estimated signal strength in dBm, derived from SignalPercent.
	RSSI int `json:"rssi"`

	// Channel is the radio channel the access point operates on.
	Channel int `json:"channel"`

	// Connected is true for the access point the host is associated with.
	Connected bool `json:"connected"`
}

// LinkInfo describes the current wireless association. The zero value means
// "not connected".
type LinkInfo struct {
	Connected     bool    `json:"connected"`
	SSID          string  `json:"ssid"`
	BSSID         string  `json:"bssid"`
	Channel       int     `json:"channel"`
	Band          string  `json:"band"`
	RadioType     string  `json:"radio_type"`
	Auth          string  `json:"auth"`
	RxRateMbps    float64 `json:"rx_rate"`
	TxRateMbps    float64 `json:"tx_rate"`
	SignalPercent int     `json:"signal_percent"`

	// RSSIdBm, SNRdB and NoiseDBm are estimates derived from SignalPercent
	// and the configured noise floor, not radio measurements.
	RSSIdBm  int `json:"rssi"`
	SNRdB    int `json:"snr"`
	NoiseDBm int `json:"noise"`

	// Gateway is the default gateway IP for the link, empty when unknown.
	Gateway string `json:"gateway"`
}

// LinkReport is a [LinkInfo] together with its acquisition time, so
// consumers can flag it as stale instead of trusting it forever.
type LinkReport struct {
	Link LinkInfo  `json:"link"`
	At   time.Time `json:"at"`
}

// ScanReport is one scan outcome together with its acquisition time.
type ScanReport struct {
	Networks []NetworkEntry `json:"networks"`
	At       time.Time      `json:"at"`
}

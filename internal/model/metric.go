package model

// MetricID identifies one diagnostic metric tracked by the agent.
type MetricID string

const (
	// MetricSignalPercent is the coarse link quality reported by the wireless driver (0-100).
	MetricSignalPercent = MetricID("signal_percent")

	// MetricRSSI is the received signal strength in dBm, derived from the signal percentage.
	MetricRSSI = MetricID("rssi")

	// MetricSNR is the signal-to-noise ratio in dB, estimated against the assumed noise floor.
	MetricSNR = MetricID("snr")

	// MetricNoise is the assumed noise floor in dBm.
	MetricNoise = MetricID("noise")

	// MetricRxRate is the negotiated receive rate in Mbps.
	MetricRxRate = MetricID("rx_rate")

	// MetricTxRate is the negotiated transmit rate in Mbps.
	MetricTxRate = MetricID("tx_rate")

	// MetricRouterPing is the RTT to the default gateway in milliseconds.
	MetricRouterPing = MetricID("router_ping")

	// MetricInternetPing is the RTT to the internet reference host in milliseconds.
	MetricInternetPing = MetricID("internet_ping")

	// MetricRouterJitter is the absolute RTT delta between consecutive gateway pings.
	MetricRouterJitter = MetricID("router_jitter")

	// MetricInternetJitter is the absolute RTT delta between consecutive internet pings.
	MetricInternetJitter = MetricID("internet_jitter")

	// MetricRouterLoss is the gateway echo loss percentage over the loss window.
	MetricRouterLoss = MetricID("router_loss")

	// MetricInternetLoss is the internet echo loss percentage over the loss window.
	MetricInternetLoss = MetricID("internet_loss")

	// MetricDNSLookup is the name resolution time for the probe hostname in milliseconds.
	MetricDNSLookup = MetricID("dns_lookup")

	// MetricTCPEstablished counts TCP connections in the ESTABLISHED state.
	MetricTCPEstablished = MetricID("tcp_established")

	// MetricTCPCloseWait counts TCP connections in the CLOSE_WAIT state.
	MetricTCPCloseWait = MetricID("tcp_close_wait")

	// MetricTCPTimeWait counts TCP connections in the TIME_WAIT state.
	MetricTCPTimeWait = MetricID("tcp_time_wait")

	// MetricTCPTotal counts TCP connections across the tracked states.
	MetricTCPTotal = MetricID("tcp_total")
)

// Common units attached to readings.
const (
	UnitPercent = "%"
	UnitDBm     = "dBm"
	UnitDB      = "dB"
	UnitMbps    = "Mbps"
	UnitMillis  = "ms"
	UnitCount   = "count"
)

// HistoryMetrics returns the metrics that keep rolling history. The TCP
// time-wait and total counts are latest-only.
func HistoryMetrics() []MetricID {
	return []MetricID{
		MetricSignalPercent,
		MetricRSSI,
		MetricSNR,
		MetricNoise,
		MetricRxRate,
		MetricTxRate,
		MetricRouterPing,
		MetricInternetPing,
		MetricRouterJitter,
		MetricInternetJitter,
		MetricRouterLoss,
		MetricInternetLoss,
		MetricDNSLookup,
		MetricTCPEstablished,
		MetricTCPCloseWait,
	}
}

// AllMetrics returns every metric the agent records, history-backed or not.
func AllMetrics() []MetricID {
	return append(HistoryMetrics(), MetricTCPTimeWait, MetricTCPTotal)
}

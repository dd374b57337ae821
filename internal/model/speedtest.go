package model

import "time"

// SpeedTestResult is the outcome of one on-demand throughput measurement.
// Only the most recent result is retained.
type SpeedTestResult struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// DownloadMbps and UploadMbps are the measured throughputs.
	DownloadMbps float64 `json:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps"`

	// DownloadBytes and UploadBytes are the transferred payload sizes.
	DownloadBytes int64 `json:"download_bytes"`
	UploadBytes   int64 `json:"upload_bytes"`

	// DownloadSeconds and UploadSeconds are the transfer durations.
	DownloadSeconds float64 `json:"download_duration_s"`
	UploadSeconds   float64 `json:"upload_duration_s"`

	// DownloadError and UploadError describe a failed direction. A
	// run with one failed direction is still a usable result.
	DownloadError string `json:"download_error,omitempty"`
	UploadError   string `json:"upload_error,omitempty"`

	// At is the completion time of the run.
	At time.Time `json:"at"`
}

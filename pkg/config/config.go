// Package config contains the agent configuration: sensible defaults,
// functional options for embedders, and an optional YAML file with
// WIFIRADAR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/spf13/viper"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/runtimex"
)

// ErrBadConfig means the configuration file cannot be used.
var ErrBadConfig = errors.New("config: cannot load file")

// Speed test backends.
const (
	// BackendHTTP measures against a plain HTTP endpoint pair.
	BackendHTTP = "http"

	// BackendNDT7 measures against an ndt7 server.
	BackendNDT7 = "ndt7"
)

const (
	defaultListenAddr = "127.0.0.1:8000"

	// envPrefix is the environment variable prefix, e.g.
	// WIFIRADAR_SAMPLING_METRIC_INTERVAL.
	envPrefix = "WIFIRADAR"
)

// SamplingOptions contains options for the sampling loops and their
// collaborators.
type SamplingOptions struct {
	// MetricInterval is the cadence of the connection-quality loops.
	MetricInterval time.Duration `mapstructure:"metric_interval"`

	// ScanInterval is the cadence of the network scan loop.
	ScanInterval time.Duration `mapstructure:"scan_interval"`

	// HistoryWindow is how much metric history a snapshot exposes.
	HistoryWindow time.Duration `mapstructure:"history_window"`

	// LossWindow is the number of echo attempts the loss figure
	// averages over.
	LossWindow int `mapstructure:"loss_window"`

	// ProbeTimeout bounds one probe call.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// ScanTimeout bounds one network scan.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`

	// InternetPingHost is the echo target beyond the gateway.
	InternetPingHost string `mapstructure:"internet_ping_host"`

	// DNSProbeHost is the hostname whose resolution we time.
	DNSProbeHost string `mapstructure:"dns_probe_host"`

	// NoiseFloorDBm is the assumed noise floor for SNR estimates.
	NoiseFloorDBm int `mapstructure:"noise_floor_dbm"`
}

// DefaultSamplingOptions returns the sampling defaults.
func DefaultSamplingOptions() *SamplingOptions {
	return &SamplingOptions{
		MetricInterval:   2 * time.Second,
		ScanInterval:     5 * time.Second,
		HistoryWindow:    2 * time.Minute,
		LossWindow:       30,
		ProbeTimeout:     1500 * time.Millisecond,
		ScanTimeout:      10 * time.Second,
		InternetPingHost: "1.1.1.1",
		DNSProbeHost:     "google.com",
		NoiseFloorDBm:    model.DefaultNoiseFloorDBm,
	}
}

// HistoryCapacity returns the ring size covering the history window at
// the metric cadence, never less than one slot.
func (o *SamplingOptions) HistoryCapacity() int {
	if o.MetricInterval <= 0 {
		return 1
	}
	capacity := int(o.HistoryWindow / o.MetricInterval)
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// SpeedTestOptions contains options for the speed test engine.
type SpeedTestOptions struct {
	// Backend selects the measurement flavor, [BackendHTTP] or
	// [BackendNDT7].
	Backend string `mapstructure:"backend"`

	// DownloadURL serves the sized download payload (http backend).
	DownloadURL string `mapstructure:"download_url"`

	// UploadURL accepts the upload payload (http backend).
	UploadURL string `mapstructure:"upload_url"`

	// UploadBytes is the upload payload size (http backend).
	UploadBytes int64 `mapstructure:"upload_bytes"`

	// Timeout bounds a whole run, both directions included.
	Timeout time.Duration `mapstructure:"timeout"`

	// NDT7Server is the ndt7 "host:port"; empty means asking the
	// locate service (ndt7 backend).
	NDT7Server string `mapstructure:"ndt7_server"`
}

// DefaultSpeedTestOptions returns the speed test defaults, pointing at
// the Cloudflare speed service.
func DefaultSpeedTestOptions() *SpeedTestOptions {
	return &SpeedTestOptions{
		Backend:     BackendHTTP,
		DownloadURL: "https://speed.cloudflare.com/__down?bytes=10000000",
		UploadURL:   "https://speed.cloudflare.com/__up",
		UploadBytes: 5_000_000,
		Timeout:     75 * time.Second,
	}
}

// Config contains options to initialize the diagnostics agent.
type Config struct {
	// logger will be used to log events.
	logger model.Logger

	// listenAddr is where the HTTP API listens.
	listenAddr string

	// staticDir optionally serves a frontend, empty disables it.
	staticDir string

	// sampling contains options for the sampling loops.
	sampling *SamplingOptions

	// speedtest contains options for the speed test engine.
	speedtest *SpeedTestOptions
}

// NewConfig returns a Config ready to initialize the agent.
func NewConfig(options ...Option) *Config {
	cfg := &Config{
		logger:     log.Log,
		listenAddr: defaultListenAddr,
		sampling:   DefaultSamplingOptions(),
		speedtest:  DefaultSpeedTestOptions(),
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// Option is an option you can pass to initialize the agent.
type Option func(config *Config)

// WithLogger configures the passed [model.Logger].
func WithLogger(logger model.Logger) Option {
	return func(config *Config) {
		config.logger = logger
	}
}

// Logger returns the configured logger.
func (c *Config) Logger() model.Logger {
	return c.logger
}

// WithListenAddr configures the HTTP API listen address.
func WithListenAddr(addr string) Option {
	return func(config *Config) {
		config.listenAddr = addr
	}
}

// ListenAddr returns the configured listen address.
func (c *Config) ListenAddr() string {
	return c.listenAddr
}

// WithStaticDir configures a directory with frontend assets.
func WithStaticDir(dir string) Option {
	return func(config *Config) {
		config.staticDir = dir
	}
}

// StaticDir returns the configured static assets directory.
func (c *Config) StaticDir() string {
	return c.staticDir
}

// WithSamplingOptions configures the passed sampling options.
func WithSamplingOptions(opts *SamplingOptions) Option {
	return func(config *Config) {
		config.sampling = opts
	}
}

// Sampling returns the configured sampling options.
func (c *Config) Sampling() *SamplingOptions {
	return c.sampling
}

// WithSpeedTestOptions configures the passed speed test options.
func WithSpeedTestOptions(opts *SpeedTestOptions) Option {
	return func(config *Config) {
		config.speedtest = opts
	}
}

// SpeedTest returns the configured speed test options.
func (c *Config) SpeedTest() *SpeedTestOptions {
	return c.speedtest
}

// WithConfigFile configures options parsed from the given YAML file.
func WithConfigFile(path string) Option {
	return func(config *Config) {
		opts, err := ReadConfigFile(path)
		runtimex.PanicOnError(err, "cannot parse config file")
		config.listenAddr = opts.Listen
		config.staticDir = opts.StaticDir
		config.sampling = &opts.Sampling
		config.speedtest = &opts.Speedtest
	}
}

// FileOptions is the configuration file surface. Anything the file
// leaves out keeps its default.
type FileOptions struct {
	Listen    string           `mapstructure:"listen"`
	StaticDir string           `mapstructure:"static_dir"`
	Sampling  SamplingOptions  `mapstructure:"sampling"`
	Speedtest SpeedTestOptions `mapstructure:"speedtest"`
}

// ReadConfigFile loads options from a YAML file. WIFIRADAR_*
// environment variables override file values, e.g.
// WIFIRADAR_SAMPLING_METRIC_INTERVAL=5s.
func ReadConfigFile(path string) (*FileOptions, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadConfig, err)
	}
	var opts FileOptions
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadConfig, err)
	}
	return &opts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", defaultListenAddr)
	v.SetDefault("static_dir", "")

	sampling := DefaultSamplingOptions()
	v.SetDefault("sampling.metric_interval", sampling.MetricInterval)
	v.SetDefault("sampling.scan_interval", sampling.ScanInterval)
	v.SetDefault("sampling.history_window", sampling.HistoryWindow)
	v.SetDefault("sampling.loss_window", sampling.LossWindow)
	v.SetDefault("sampling.probe_timeout", sampling.ProbeTimeout)
	v.SetDefault("sampling.scan_timeout", sampling.ScanTimeout)
	v.SetDefault("sampling.internet_ping_host", sampling.InternetPingHost)
	v.SetDefault("sampling.dns_probe_host", sampling.DNSProbeHost)
	v.SetDefault("sampling.noise_floor_dbm", sampling.NoiseFloorDBm)

	speedtest := DefaultSpeedTestOptions()
	v.SetDefault("speedtest.backend", speedtest.Backend)
	v.SetDefault("speedtest.download_url", speedtest.DownloadURL)
	v.SetDefault("speedtest.upload_url", speedtest.UploadURL)
	v.SetDefault("speedtest.upload_bytes", speedtest.UploadBytes)
	v.SetDefault("speedtest.timeout", speedtest.Timeout)
	v.SetDefault("speedtest.ndt7_server", speedtest.NDT7Server)
}

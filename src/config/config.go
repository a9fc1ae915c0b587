// Package config holds the settings shared by the AccelMonitor commands: where the
// sensor is, how much history to keep and how often to redraw. Values come from
// defaults, an optional YAML file and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iafilius/AccelMonitor/src/buffer"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

// Config is the complete AccelMonitor configuration.
type Config struct {
	// URL overrides Host/Port/Path when set.
	URL               string       `yaml:"url"`
	Host              string       `yaml:"host"`
	Port              int          `yaml:"port"`
	Path              string       `yaml:"path"`
	HistoryLength     int          `yaml:"history_length"`
	RefreshIntervalMS int          `yaml:"refresh_interval_ms"`
	Echo              bool         `yaml:"echo"` // print every sample to stdout
	LogLevel          string       `yaml:"log_level"`
	Window            WindowConfig `yaml:"window"`
}

// WindowConfig sizes the viewer window.
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Host:              "192.168.200.13",
		Port:              81,
		HistoryLength:     buffer.DefaultLength,
		RefreshIntervalMS: 50,
		Echo:              true,
		LogLevel:          "info",
		Window:            WindowConfig{Width: 1100, Height: 520},
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WebSocketURL returns the address to dial.
func (c *Config) WebSocketURL() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), Path: c.Path}
	return u.String()
}

// RefreshInterval is the redraw period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// Validate checks the configuration for values the commands cannot work with.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.WebSocketURL())
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("url: %w", err))
	case u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("url: scheme must be ws or wss, got %q", u.Scheme))
	case u.Host == "" || u.Hostname() == "":
		errs = append(errs, errors.New("url: missing host"))
	}
	if c.URL == "" && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port must be 1-65535, got %d", c.Port))
	}
	if c.HistoryLength < 2 || c.HistoryLength > 100000 {
		errs = append(errs, fmt.Errorf("history_length must be 2-100000, got %d", c.HistoryLength))
	}
	if c.RefreshIntervalMS < 10 {
		errs = append(errs, fmt.Errorf("refresh_interval_ms must be >= 10, got %d", c.RefreshIntervalMS))
	}
	if !sensor.ValidLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.Window.Width < 320 || c.Window.Height < 200 {
		errs = append(errs, fmt.Errorf("window must be at least 320x200, got %dx%d", c.Window.Width, c.Window.Height))
	}
	return errors.Join(errs...)
}

// Flags binds the configuration to a flag set. Flags given on the command line
// win over the YAML file named by -config.
type Flags struct {
	fs         *flag.FlagSet
	configPath string
	url        string
	host       string
	port       int
	path       string
	history    int
	interval   time.Duration
	echo       bool
	logLevel   string
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file (optional)")
	fs.StringVar(&f.url, "url", "", "Full WebSocket URL of the sensor (overrides -host/-port/-path)")
	fs.StringVar(&f.host, "host", d.Host, "Sensor IP address or host name")
	fs.IntVar(&f.port, "port", d.Port, "Sensor WebSocket port")
	fs.StringVar(&f.path, "path", d.Path, "WebSocket path on the sensor")
	fs.IntVar(&f.history, "history", d.HistoryLength, "Number of samples kept and plotted")
	fs.DurationVar(&f.interval, "interval", d.RefreshInterval(), "Chart refresh interval")
	fs.BoolVar(&f.echo, "echo", d.Echo, "Print every received sample to stdout")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel, "Log level (debug|info|warn|error)")
	return f
}

// Resolve builds the final configuration after fs.Parse.
func (f *Flags) Resolve() (*Config, error) {
	cfg := Default()
	if f.configPath != "" {
		loaded, err := Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "url":
			cfg.URL = f.url
		case "host":
			cfg.Host = f.host
		case "port":
			cfg.Port = f.port
		case "path":
			cfg.Path = f.path
		case "history":
			cfg.HistoryLength = f.history
		case "interval":
			cfg.RefreshIntervalMS = int(f.interval / time.Millisecond)
		case "echo":
			cfg.Echo = f.echo
		case "log-level":
			cfg.LogLevel = f.logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultUDPAddress    = ":3000"
	DefaultUDPPort       = 3000
	DefaultHTTPAddress   = ":8080"
	DefaultDBPath        = "ncom.db"
	DefaultStatsInterval = time.Minute
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the file configuration for the ncom command. Every field is
// optional; flags given on the command line take precedence.
type Config struct {
	// UDP ingest
	UDPAddress *string `json:"udp_address,omitempty" yaml:"udp_address,omitempty"`
	UDPRcvBuf  *int    `json:"udp_rcvbuf,omitempty" yaml:"udp_rcvbuf,omitempty"`
	UDPPort    *int    `json:"udp_port,omitempty" yaml:"udp_port,omitempty"` // pcap replay filter

	// Storage and serving
	DBPath      *string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	HTTPAddress *string `json:"http_address,omitempty" yaml:"http_address,omitempty"`

	StatsInterval *string `json:"stats_interval,omitempty" yaml:"stats_interval,omitempty"` // duration string like "30s"

	// Logging
	LogFile       *string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogMaxSizeMB  *int    `json:"log_max_size_mb,omitempty" yaml:"log_max_size_mb,omitempty"`
	LogMaxBackups *int    `json:"log_max_backups,omitempty" yaml:"log_max_backups,omitempty"`

	Serial *SerialConfig `json:"serial,omitempty" yaml:"serial,omitempty"`
}

// SerialConfig describes the RS-232 source.
type SerialConfig struct {
	Path     string `json:"path" yaml:"path"`
	BaudRate int    `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty" yaml:"parity,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a .json, .yaml or .yml file. Unknown keys are
// rejected. Fields omitted from the file fall back to the defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.StatsInterval != nil && *c.StatsInterval != "" {
		d, err := time.ParseDuration(*c.StatsInterval)
		if err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("stats_interval must be positive, got %s", d)
		}
	}
	if c.UDPRcvBuf != nil && *c.UDPRcvBuf < 0 {
		return fmt.Errorf("udp_rcvbuf must be non-negative, got %d", *c.UDPRcvBuf)
	}
	if c.UDPPort != nil && (*c.UDPPort < 1 || *c.UDPPort > 65535) {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", *c.UDPPort)
	}
	if c.LogMaxSizeMB != nil && *c.LogMaxSizeMB < 0 {
		return fmt.Errorf("log_max_size_mb must be non-negative, got %d", *c.LogMaxSizeMB)
	}
	if c.LogMaxBackups != nil && *c.LogMaxBackups < 0 {
		return fmt.Errorf("log_max_backups must be non-negative, got %d", *c.LogMaxBackups)
	}
	if c.Serial != nil && c.Serial.Path == "" {
		return errors.New("serial.path is required when serial is set")
	}
	return nil
}

// GetUDPAddress returns the udp_address value or the default.
func (c *Config) GetUDPAddress() string {
	if c.UDPAddress == nil || *c.UDPAddress == "" {
		return DefaultUDPAddress
	}
	return *c.UDPAddress
}

// GetUDPRcvBuf returns the udp_rcvbuf value or 0 (system default).
func (c *Config) GetUDPRcvBuf() int {
	if c.UDPRcvBuf == nil {
		return 0
	}
	return *c.UDPRcvBuf
}

// GetUDPPort returns the udp_port value or the default.
func (c *Config) GetUDPPort() int {
	if c.UDPPort == nil {
		return DefaultUDPPort
	}
	return *c.UDPPort
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetHTTPAddress returns the http_address value or the default.
func (c *Config) GetHTTPAddress() string {
	if c.HTTPAddress == nil || *c.HTTPAddress == "" {
		return DefaultHTTPAddress
	}
	return *c.HTTPAddress
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *Config) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return DefaultStatsInterval
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil || d <= 0 {
		return DefaultStatsInterval
	}
	return d
}

// GetLogFile returns the log_file value; empty means stderr only.
func (c *Config) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

func (c *Config) GetLogMaxSizeMB() int {
	if c.LogMaxSizeMB == nil || *c.LogMaxSizeMB == 0 {
		return DefaultLogMaxSizeMB
	}
	return *c.LogMaxSizeMB
}

func (c *Config) GetLogMaxBackups() int {
	if c.LogMaxBackups == nil {
		return DefaultLogMaxBackups
	}
	return *c.LogMaxBackups
}

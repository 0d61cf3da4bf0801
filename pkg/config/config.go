package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults and limits
const (
	defaultSegmentSize  = 1024
	defaultBaseKey      = 2000
	defaultSingleKey    = 1234
	defaultPollInterval = 100 * time.Millisecond
	defaultMaxRooms     = 10
	minSegmentSize      = 2
	maxRoomNumber       = 999

	defaultLogLevel = "info"

	DefaultAPIAddress = "127.0.0.1:7077"
	defaultAPIRPS     = 20
	defaultAPIBurst   = 40

	defaultRetentionCron   = "*/5 * * * *"
	defaultRetentionPeriod = "1h"

	defaultStorePath = "~/.shmchat/contacts"

	// DefaultName is used when no display name is given.
	DefaultName = "Anonymous"
)

const (
	TransportSysV    = "sysv"
	TransportWindows = "windows"
	TransportMemory  = "memory"
)

// defaultTransport is the segment transport native to the build platform.
var defaultTransport = nativeTransport(runtime.GOOS)

func nativeTransport(goos string) string {
	if goos == "windows" {
		return TransportWindows
	}
	return TransportSysV
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value. Zero means unset, except
// history.max_messages where zero keeps history unbounded.
func (c *Config) ApplyDefaults() {
	if c.Channel.Transport == "" {
		c.Channel.Transport = defaultTransport
	}
	if c.Channel.SegmentSize == 0 {
		c.Channel.SegmentSize = SizeBytes(defaultSegmentSize)
	}
	if c.Channel.BaseKey == 0 {
		c.Channel.BaseKey = defaultBaseKey
	}
	if c.Channel.SingleKey == 0 {
		c.Channel.SingleKey = defaultSingleKey
	}
	if c.Channel.PollInterval.Duration() == 0 {
		c.Channel.PollInterval = Duration(defaultPollInterval)
	}
	if c.Channel.MaxRooms == 0 {
		c.Channel.MaxRooms = defaultMaxRooms
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.API.Address == "" {
		c.API.Address = DefaultAPIAddress
	}
	if c.API.RateLimit.RPS <= 0 {
		c.API.RateLimit.RPS = defaultAPIRPS
	}
	if c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = defaultAPIBurst
	}

	if c.Retention.Cron == "" {
		c.Retention.Cron = defaultRetentionCron
	}
	if c.Retention.Period == "" {
		c.Retention.Period = defaultRetentionPeriod
	}

	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
}

// DisplayName returns the configured name, or DefaultName when blank.
func (c *Config) DisplayName() string {
	if n := strings.TrimSpace(c.Identity.Name); n != "" {
		return n
	}
	return DefaultName
}

// StorePath returns store.path with a leading "~" expanded.
func (c *Config) StorePath() string {
	return expandHome(c.Store.Path)
}

// RetentionPeriod parses retention.period.
func (c *Config) RetentionPeriod() (time.Duration, error) {
	return ParsePeriod(c.Retention.Period)
}

// ParsePeriod parses a retention period. Besides Go durations it accepts a
// whole number of days ("7d").
func ParsePeriod(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty period")
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid period: %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid period: %q", raw)
	}
	return d, nil
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("SHMCHAT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

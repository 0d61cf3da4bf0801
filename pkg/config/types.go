package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Identity  IdentityConfig  `yaml:"identity"`
	Channel   ChannelConfig   `yaml:"channel"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
	API       APIConfig       `yaml:"api"`
	Retention RetentionConfig `yaml:"retention"`
	Store     StoreConfig     `yaml:"store"`
}

// IdentityConfig holds the local participant's display name.
type IdentityConfig struct {
	Name string `yaml:"name"`
}

// ChannelConfig controls how segments are keyed, sized and polled.
type ChannelConfig struct {
	Transport string `yaml:"transport"` // sysv | windows | memory

	// SegmentSize is the byte length of every segment. Only the default
	// 1024 interoperates with the C clients: a SysV attach fails on a size
	// mismatch and frames of other lengths truncate differently. Other sizes
	// are accepted with a warning.
	SegmentSize SizeBytes `yaml:"segment_size"`

	BaseKey      int       `yaml:"base_key"`
	SingleKey    int       `yaml:"single_key"`
	PollInterval Duration  `yaml:"poll_interval"`
	MaxRooms     int       `yaml:"max_rooms"`
}

// HistoryConfig bounds each room's in-memory message sequence.
type HistoryConfig struct {
	MaxMessages int `yaml:"max_messages"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// APIConfig holds the read-only status server settings.
type APIConfig struct {
	Enabled   bool            `yaml:"enabled"`
	Address   string          `yaml:"address"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RetentionConfig holds configuration for the scheduled history prune.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Period  string `yaml:"period"`
}

// StoreConfig locates the contacts database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "1KiB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	v, err := ParseSizeBytes(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSizeBytes accepts "1KiB", "1 kB" or a plain integer. Empty is zero.
func ParseSizeBytes(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

func (s SizeBytes) Int() int { return int(s) }

func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	v, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDuration accepts Go durations or numeric seconds. Empty is zero.
func ParseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

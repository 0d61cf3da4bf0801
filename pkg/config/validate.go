package config

import (
	"fmt"
	"net"

	"github.com/adhocore/gronx"

	"shmchat/pkg/state/logger"
)

// ValidateConfig fails fast on values the chat cannot run with.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}

	switch cfg.Channel.Transport {
	case TransportSysV, TransportWindows, TransportMemory:
	default:
		return fmt.Errorf("invalid channel.transport %q: want %s, %s or %s", cfg.Channel.Transport, TransportSysV, TransportWindows, TransportMemory)
	}
	if cfg.Channel.SegmentSize.Int() < minSegmentSize {
		return fmt.Errorf("channel.segment_size must be at least %d bytes, got %d", minSegmentSize, cfg.Channel.SegmentSize)
	}
	if size := cfg.Channel.SegmentSize.Int(); size != defaultSegmentSize {
		logger.Warn("segment_size_nonstandard", "size", size, "standard", defaultSegmentSize,
			"note", "peers using the standard size cannot share these rooms")
	}
	if cfg.Channel.BaseKey < 0 || cfg.Channel.SingleKey < 0 {
		return fmt.Errorf("channel keys must be positive")
	}
	if n := cfg.Channel.MaxRooms; n < 1 || n > maxRoomNumber {
		return fmt.Errorf("channel.max_rooms must be in 1..%d, got %d", maxRoomNumber, n)
	}
	if cfg.Channel.PollInterval.Duration() < 0 {
		return fmt.Errorf("channel.poll_interval must not be negative")
	}
	if cfg.History.MaxMessages < 0 {
		return fmt.Errorf("history.max_messages must not be negative")
	}
	if !logger.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid logging.level %q", cfg.Logging.Level)
	}

	if cfg.API.Enabled {
		if _, _, err := net.SplitHostPort(cfg.API.Address); err != nil {
			return fmt.Errorf("invalid api.address %q: %w", cfg.API.Address, err)
		}
	}

	// retention: validate the schedule and the period only when it will run
	ret := cfg.Retention
	if ret.Enabled {
		if !gronx.New().IsValid(ret.Cron) {
			return fmt.Errorf("invalid retention.cron %q: not a valid cron expression", ret.Cron)
		}
		if _, err := ParsePeriod(ret.Period); err != nil {
			return fmt.Errorf("retention.period: %w", err)
		}
	}
	return nil
}

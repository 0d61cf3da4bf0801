package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Flags holds command-line values and which of them were set. The CLI
// fills it from its persistent flags.
type Flags struct {
	Config    string
	Name      string
	LogLevel  string
	Transport string
	APIAddr   string
	Set       map[string]bool
}

// EnvResult records which environment variables were present.
type EnvResult struct {
	EnvUsed bool
	// Set holds the keys (without the SHMCHAT_ prefix) that carried a value.
	Set map[string]bool
	// Invalid holds keys whose value could not be parsed.
	Invalid []string
}

// EffectiveConfigResult holds the result of LoadEffectiveConfig.
type EffectiveConfigResult struct {
	Config *Config
	Path   string
	Source string // layers applied, e.g. "defaults+config+env"
}

// ParseConfigFile loads the config file. It returns the parsed config, a
// boolean indicating whether the file was present, and an error for fatal
// parsing problems.
func ParseConfigFile(flags Flags) (*Config, string, bool, error) {
	path := ResolveConfigPath(flags.Config, flags.Set["config"])
	if path == "" {
		return &Config{}, path, false, nil
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, path, false, nil
		}
		return nil, path, false, err
	}
	return cfg, path, true, nil
}

// ParseConfigEnvs loads SHMCHAT_* environment variables into a new Config;
// the caller's config is unchanged.
func ParseConfigEnvs() (*Config, EnvResult) {
	// gather all relevant env variables
	envs := map[string]string{
		"NAME":                 os.Getenv("SHMCHAT_NAME"),
		"TRANSPORT":            os.Getenv("SHMCHAT_TRANSPORT"),
		"SEGMENT_SIZE":         os.Getenv("SHMCHAT_SEGMENT_SIZE"),
		"BASE_KEY":             os.Getenv("SHMCHAT_BASE_KEY"),
		"SINGLE_KEY":           os.Getenv("SHMCHAT_SINGLE_KEY"),
		"POLL_INTERVAL":        os.Getenv("SHMCHAT_POLL_INTERVAL"),
		"MAX_ROOMS":            os.Getenv("SHMCHAT_MAX_ROOMS"),
		"HISTORY_MAX_MESSAGES": os.Getenv("SHMCHAT_HISTORY_MAX_MESSAGES"),

		// logging
		"LOG_LEVEL": os.Getenv("SHMCHAT_LOG_LEVEL"),
		"LOG_FILE":  os.Getenv("SHMCHAT_LOG_FILE"),

		// status api
		"API_ENABLED": os.Getenv("SHMCHAT_API_ENABLED"),
		"API_ADDRESS": os.Getenv("SHMCHAT_API_ADDRESS"),
		"RATE_RPS":    os.Getenv("SHMCHAT_RATE_RPS"),
		"RATE_BURST":  os.Getenv("SHMCHAT_RATE_BURST"),

		// history retention
		"RETENTION_ENABLED": os.Getenv("SHMCHAT_RETENTION_ENABLED"),
		"RETENTION_CRON":    os.Getenv("SHMCHAT_RETENTION_CRON"),
		"RETENTION_PERIOD":  os.Getenv("SHMCHAT_RETENTION_PERIOD"),

		"STORE_PATH": os.Getenv("SHMCHAT_STORE_PATH"),
	}

	res := EnvResult{Set: make(map[string]bool)}
	for k, v := range envs {
		if strings.TrimSpace(v) != "" {
			res.Set[k] = true
			res.EnvUsed = true
		}
	}
	envCfg := &Config{}

	// parse helpers
	invalid := func(key string) { res.Invalid = append(res.Invalid, "SHMCHAT_"+key) }

	parseBool := func(key string) bool {
		switch strings.ToLower(strings.TrimSpace(envs[key])) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
		invalid(key)
		return false
	}

	parseInt := func(key string) int {
		n, err := strconv.Atoi(strings.TrimSpace(envs[key]))
		if err != nil {
			invalid(key)
			return 0
		}
		return n
	}

	if res.Set["NAME"] {
		envCfg.Identity.Name = strings.TrimSpace(envs["NAME"])
	}
	if res.Set["TRANSPORT"] {
		envCfg.Channel.Transport = strings.ToLower(strings.TrimSpace(envs["TRANSPORT"]))
	}
	if res.Set["SEGMENT_SIZE"] {
		if v, err := ParseSizeBytes(envs["SEGMENT_SIZE"]); err == nil {
			envCfg.Channel.SegmentSize = v
		} else {
			invalid("SEGMENT_SIZE")
		}
	}
	if res.Set["BASE_KEY"] {
		envCfg.Channel.BaseKey = parseInt("BASE_KEY")
	}
	if res.Set["SINGLE_KEY"] {
		envCfg.Channel.SingleKey = parseInt("SINGLE_KEY")
	}
	if res.Set["POLL_INTERVAL"] {
		if v, err := ParseDuration(envs["POLL_INTERVAL"]); err == nil {
			envCfg.Channel.PollInterval = v
		} else {
			invalid("POLL_INTERVAL")
		}
	}
	if res.Set["MAX_ROOMS"] {
		envCfg.Channel.MaxRooms = parseInt("MAX_ROOMS")
	}
	if res.Set["HISTORY_MAX_MESSAGES"] {
		envCfg.History.MaxMessages = parseInt("HISTORY_MAX_MESSAGES")
	}

	// logging env overrides
	if res.Set["LOG_LEVEL"] {
		envCfg.Logging.Level = strings.TrimSpace(envs["LOG_LEVEL"])
	}
	if res.Set["LOG_FILE"] {
		envCfg.Logging.File = strings.TrimSpace(envs["LOG_FILE"])
	}

	if res.Set["API_ENABLED"] {
		envCfg.API.Enabled = parseBool("API_ENABLED")
	}
	if res.Set["API_ADDRESS"] {
		envCfg.API.Address = strings.TrimSpace(envs["API_ADDRESS"])
	}
	if res.Set["RATE_RPS"] {
		if f, err := strconv.ParseFloat(strings.TrimSpace(envs["RATE_RPS"]), 64); err == nil {
			envCfg.API.RateLimit.RPS = f
		} else {
			invalid("RATE_RPS")
		}
	}
	if res.Set["RATE_BURST"] {
		envCfg.API.RateLimit.Burst = parseInt("RATE_BURST")
	}

	// retention related env overrides
	if res.Set["RETENTION_ENABLED"] {
		envCfg.Retention.Enabled = parseBool("RETENTION_ENABLED")
	}
	if res.Set["RETENTION_CRON"] {
		envCfg.Retention.Cron = strings.TrimSpace(envs["RETENTION_CRON"])
	}
	if res.Set["RETENTION_PERIOD"] {
		envCfg.Retention.Period = strings.TrimSpace(envs["RETENTION_PERIOD"])
	}

	if res.Set["STORE_PATH"] {
		envCfg.Store.Path = strings.TrimSpace(envs["STORE_PATH"])
	}
	return envCfg, res
}

// LoadEffectiveConfig layers the sources: defaults, then the config file,
// then environment, then explicitly set flags. An explicit --config must
// point at an existing file.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, path string, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] && !fileExists {
		return res, fmt.Errorf("config file %s not found", flags.Config)
	}
	if len(envRes.Invalid) > 0 {
		return res, fmt.Errorf("invalid environment values: %s", strings.Join(envRes.Invalid, ", "))
	}

	out := &Config{}
	layers := []string{"defaults"}
	if fileExists && fileCfg != nil {
		*out = *fileCfg
		res.Path = path
		layers = append(layers, "config")
	}
	if envRes.EnvUsed && envCfg != nil {
		overlay(out, envCfg, envRes.Set)
		layers = append(layers, "env")
	}
	if applyFlags(out, flags) {
		layers = append(layers, "flags")
	}
	out.ApplyDefaults()

	res.Config = out
	res.Source = strings.Join(layers, "+")
	return res, nil
}

// overlay copies the fields of src whose env key was set onto dst.
func overlay(dst, src *Config, set map[string]bool) {
	if set["NAME"] {
		dst.Identity.Name = src.Identity.Name
	}
	if set["TRANSPORT"] {
		dst.Channel.Transport = src.Channel.Transport
	}
	if set["SEGMENT_SIZE"] {
		dst.Channel.SegmentSize = src.Channel.SegmentSize
	}
	if set["BASE_KEY"] {
		dst.Channel.BaseKey = src.Channel.BaseKey
	}
	if set["SINGLE_KEY"] {
		dst.Channel.SingleKey = src.Channel.SingleKey
	}
	if set["POLL_INTERVAL"] {
		dst.Channel.PollInterval = src.Channel.PollInterval
	}
	if set["MAX_ROOMS"] {
		dst.Channel.MaxRooms = src.Channel.MaxRooms
	}
	if set["HISTORY_MAX_MESSAGES"] {
		dst.History.MaxMessages = src.History.MaxMessages
	}
	if set["LOG_LEVEL"] {
		dst.Logging.Level = src.Logging.Level
	}
	if set["LOG_FILE"] {
		dst.Logging.File = src.Logging.File
	}
	if set["API_ENABLED"] {
		dst.API.Enabled = src.API.Enabled
	}
	if set["API_ADDRESS"] {
		dst.API.Address = src.API.Address
	}
	if set["RATE_RPS"] {
		dst.API.RateLimit.RPS = src.API.RateLimit.RPS
	}
	if set["RATE_BURST"] {
		dst.API.RateLimit.Burst = src.API.RateLimit.Burst
	}
	if set["RETENTION_ENABLED"] {
		dst.Retention.Enabled = src.Retention.Enabled
	}
	if set["RETENTION_CRON"] {
		dst.Retention.Cron = src.Retention.Cron
	}
	if set["RETENTION_PERIOD"] {
		dst.Retention.Period = src.Retention.Period
	}
	if set["STORE_PATH"] {
		dst.Store.Path = src.Store.Path
	}
}

func applyFlags(dst *Config, flags Flags) bool {
	used := false
	if flags.Set["name"] {
		dst.Identity.Name = flags.Name
		used = true
	}
	if flags.Set["log-level"] {
		dst.Logging.Level = flags.LogLevel
		used = true
	}
	if flags.Set["transport"] {
		dst.Channel.Transport = flags.Transport
		used = true
	}
	if flags.Set["api"] {
		dst.API.Enabled = true
		if flags.APIAddr != "" {
			dst.API.Address = flags.APIAddr
		}
		used = true
	}
	return used
}

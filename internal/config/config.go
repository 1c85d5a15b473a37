package config

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/harunnryd/solace/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Log       LogConfig       `koanf:"log" yaml:"log"`
	API       APIConfig       `koanf:"api" yaml:"api"`
	Store     StoreConfig     `koanf:"store" yaml:"store"`
	Chat      ChatConfig      `koanf:"chat" yaml:"chat"`
	Schedule  ScheduleConfig  `koanf:"schedule" yaml:"schedule"`
	Dashboard DashboardConfig `koanf:"dashboard" yaml:"dashboard"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

type APIConfig struct {
	URL       string `koanf:"url" yaml:"url"`
	Timeout   string `koanf:"timeout" yaml:"timeout"`
	UserAgent string `koanf:"user_agent" yaml:"user_agent"`
}

type StoreConfig struct {
	Path         string `koanf:"path" yaml:"path"`
	LockTimeout  string `koanf:"lock_timeout" yaml:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry" yaml:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry" yaml:"lock_max_retry"`
}

type ChatConfig struct {
	PingInterval     string `koanf:"ping_interval" yaml:"ping_interval"`
	EndChatThreshold int    `koanf:"end_chat_threshold" yaml:"end_chat_threshold"`
	HistoryLimit     int    `koanf:"history_limit" yaml:"history_limit"`
	FetchLimit       int    `koanf:"fetch_limit" yaml:"fetch_limit"`
}

type ScheduleConfig struct {
	DisplayOffset string `koanf:"display_offset" yaml:"display_offset"`
}

type DashboardConfig struct {
	Addr            string `koanf:"addr" yaml:"addr"`
	ReadTimeout     string `koanf:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

const (
	DefaultLogLevel                 = "info"
	DefaultAPIURL                   = "http://localhost:8000"
	DefaultAPITimeout               = "15s"
	DefaultAPIUserAgent             = "solace (go)"
	DefaultStoreLockTimeout         = "5s"
	DefaultStoreLockRetry           = "50ms"
	DefaultStoreLockMaxRetry        = 100
	DefaultChatPingInterval         = "30s"
	DefaultChatEndChatThreshold     = 10
	DefaultChatHistoryLimit         = 0
	DefaultChatFetchLimit           = 4
	DefaultScheduleDisplayOffset    = "+05:30"
	DefaultDashboardAddr            = "127.0.0.1:8090"
	DefaultDashboardReadTimeout     = "10s"
	DefaultDashboardShutdownTimeout = "5s"
)

// DefaultStatePath returns ~/.solace/state.json, or a relative fallback when
// the home directory cannot be resolved.
func DefaultStatePath() string {
	return filepath.Join(pathutil.StateDir(), "state.json")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"log.level":                  DefaultLogLevel,
		"api.url":                    DefaultAPIURL,
		"api.timeout":                DefaultAPITimeout,
		"api.user_agent":             DefaultAPIUserAgent,
		"store.path":                 DefaultStatePath(),
		"store.lock_timeout":         DefaultStoreLockTimeout,
		"store.lock_retry":           DefaultStoreLockRetry,
		"store.lock_max_retry":       DefaultStoreLockMaxRetry,
		"chat.ping_interval":         DefaultChatPingInterval,
		"chat.end_chat_threshold":    DefaultChatEndChatThreshold,
		"chat.history_limit":         DefaultChatHistoryLimit,
		"chat.fetch_limit":           DefaultChatFetchLimit,
		"schedule.display_offset":    DefaultScheduleDisplayOffset,
		"dashboard.addr":             DefaultDashboardAddr,
		"dashboard.read_timeout":     DefaultDashboardReadTimeout,
		"dashboard.shutdown_timeout": DefaultDashboardShutdownTimeout,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		globalPath := filepath.Join(pathutil.StateDir(), "config.yaml")
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	// SOLACE_API_URL -> api.url
	k.Load(env.Provider("SOLACE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SOLACE_")), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	if cfg.API.URL == "" {
		cfg.API.URL = DefaultAPIURL
	}
	if cfg.Chat.EndChatThreshold <= 0 {
		cfg.Chat.EndChatThreshold = DefaultChatEndChatThreshold
	}
	if cfg.Chat.FetchLimit <= 0 {
		cfg.Chat.FetchLimit = DefaultChatFetchLimit
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	statePath, err := expandConfiguredPath(cfg.Store.Path)
	if err != nil {
		return err
	}
	if statePath == "" {
		statePath = DefaultStatePath()
	}
	cfg.Store.Path = statePath
	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}

// Redacted returns a copy safe to print. The config carries no secrets today,
// the API URL is the only value that may embed credentials.
func (c *Config) Redacted() Config {
	out := *c
	if at := strings.Index(out.API.URL, "@"); at > 0 {
		if scheme := strings.Index(out.API.URL, "://"); scheme > 0 && scheme < at {
			out.API.URL = out.API.URL[:scheme+3] + "***" + out.API.URL[at:]
		}
	}
	return out
}

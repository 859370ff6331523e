package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string            `mapstructure:"app_name"`
	Env                   string            `mapstructure:"app_env"`
	LogLevel              string            `mapstructure:"log_level"`
	NodeEndpoint          string            `mapstructure:"node_endpoint"`
	NodeHeaders           map[string]string `mapstructure:"-"`
	RequestTimeoutSeconds int64             `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration     `mapstructure:"-"`
	NodesFile             string            `mapstructure:"nodes_file"`
	PublishersFile        string            `mapstructure:"publishers_file"`
	PollIntervalSeconds   int64             `mapstructure:"poll_interval"`
	PollInterval          time.Duration     `mapstructure:"-"`
	MaxCatchupBlocks      uint64            `mapstructure:"max_catchup_blocks"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "stargate-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("node_endpoint", "")
	v.SetDefault("node_headers", "")
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("nodes_file", "./configs/nodes.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 6) // seconds, roughly one block
	v.SetDefault("max_catchup_blocks", 50)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/watcher.db")
	v.SetDefault("storage_ttl_seconds", int64((2*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	headers, err := ParseHeaders(v.Get("node_headers"))
	if err != nil {
		return nil, fmt.Errorf("invalid node_headers: %w", err)
	}
	cfg.NodeHeaders = headers

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.MaxCatchupBlocks == 0 {
		return nil, fmt.Errorf("invalid max_catchup_blocks (must be positive)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// ParseHeaders accepts a map, a JSON object string, or a "Name=value,Name2=value2" list.
func ParseHeaders(raw interface{}) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		if !strings.HasPrefix(s, "{") {
			return parseHeaderList(s)
		}
	}

	m, err := cast.ToStringMapStringE(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(val)
		}
	}
	return out, nil
}

func parseHeaderList(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("header %q must be Name=value", part)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// NodeConfig returns the client configuration for the single configured endpoint.
// Headers are sorted by name so the request header order is stable.
func (c *Config) NodeConfig() stargate.Config {
	names := make([]string, 0, len(c.NodeHeaders))
	for name := range c.NodeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	out := stargate.Config{HTTPEndpoint: c.NodeEndpoint}
	for _, name := range names {
		out.HeaderKeyValues = append(out.HeaderKeyValues, stargate.HeaderKeyValue{Key: name, Value: c.NodeHeaders[name]})
	}
	return out
}

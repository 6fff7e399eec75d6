// Package config handles loading and validating gateway configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level, process-scoped configuration. It is loaded
// once at startup and treated as read-only by the core (spec.md §3).
type Config struct {
	Server ServerConfig `koanf:"server"`

	ProjectID           string              `koanf:"project_id"`
	DefaultRegion       string              `koanf:"default_region"` // default Anthropic region
	GoogleRegion        string              `koanf:"google_region"`  // default Google region
	DefaultModel        string              `koanf:"default_model"`
	EnabledModels       []string            `koanf:"enabled_models"`
	ModelAliases        map[string]string   `koanf:"model_aliases"`
	FallbackChains      map[string][]string `koanf:"fallback_chains"`
	AutoTruncate        bool                `koanf:"auto_truncate"`
	ReserveOutputTokens int                 `koanf:"reserve_output_tokens"`

	DiscoveryCache DiscoveryCacheConfig `koanf:"discovery_cache"`
	Log            LogConfig            `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// RequestTimeout is installed as the upstream http.Client's Timeout,
	// so it bounds each upstream attempt (including reading its body)
	// separately. No overall budget spans the whole failover loop.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// DiscoveryCacheConfig selects and configures the optional "available
// regions per model" cache backend (spec.md §1, §4.2).
type DiscoveryCacheConfig struct {
	Backend      string        `koanf:"backend"` // "", "file", or "redis"
	Path         string        `koanf:"path"`     // file backend
	RedisAddr    string        `koanf:"redis_addr"`
	RedisKey     string        `koanf:"redis_key"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

// LogConfig configures the append-only request log (spec.md §4.8/§4.9).
type LogConfig struct {
	Path         string `koanf:"path"`
	StatsPath    string `koanf:"stats_path"`
	MaxSizeBytes int64  `koanf:"max_size_bytes"`
}

const envPrefix = "VERTEXPROXY_"

// withDefaults seeds zero-value-safe fallbacks before the file/env
// layers load, matching the teacher's habit of keeping defaults close
// to Load rather than scattered through the struct.
func withDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.port":                   8080,
		"server.read_timeout":           "30s",
		"server.write_timeout":          "120s",
		"server.request_timeout":        "90s",
		"auto_truncate":                 true,
		"reserve_output_tokens":         1024,
		"log.path":                      "~/.vertex_proxy/proxy.log",
		"log.stats_path":                "~/.vertex_proxy/stats.json",
		"log.max_size_bytes":            10 * 1024 * 1024,
		"discovery_cache.poll_interval": "30s",
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configuration from a YAML file, layers environment
// variable overrides (VERTEXPROXY_*) on top, and returns a fully
// populated Config. A missing project id is a fatal configuration
// error (spec.md §6: exit code 1) — callers should treat
// ErrMissingProjectID that way.
func Load(path string) (*Config, error) {
	// Load .env file into the process environment, same as the teacher.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := withDefaults(k); err != nil {
		return nil, fmt.Errorf("setting defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_", ".",
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandEnvPlaceholder(&cfg.ProjectID)
	expandEnvPlaceholder(&cfg.DefaultRegion)
	expandEnvPlaceholder(&cfg.GoogleRegion)

	// Resolve a leading "~/" in the log paths to the user's home
	// directory; the OS file calls would otherwise treat "~" literally.
	if home, err := os.UserHomeDir(); err == nil {
		for _, p := range []*string{&cfg.Log.Path, &cfg.Log.StatsPath} {
			if strings.HasPrefix(*p, "~/") {
				*p = filepath.Join(home, (*p)[2:])
			}
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandEnvPlaceholder resolves a "${VAR_NAME}" value in place, the
// same convention the teacher uses for provider API keys.
func expandEnvPlaceholder(s *string) {
	if strings.HasPrefix(*s, "${") && strings.HasSuffix(*s, "}") {
		envVar := (*s)[2 : len(*s)-1]
		*s = os.Getenv(envVar)
	}
}

// ErrMissingProjectID is returned by Load/validate when no project id
// was configured. spec.md §6 calls for exit code 1 in this case.
var ErrMissingProjectID = fmt.Errorf("config: project_id is required")

func validate(cfg *Config) error {
	if cfg.ProjectID == "" {
		return ErrMissingProjectID
	}

	for alias, target := range cfg.ModelAliases {
		if alias == target {
			return fmt.Errorf("config: alias %q targets itself", alias)
		}
	}

	for from, chain := range cfg.FallbackChains {
		if len(chain) == 0 {
			return fmt.Errorf("config: fallback_chains[%q] is empty", from)
		}
	}

	return nil
}

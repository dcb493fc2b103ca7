package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.URL == "" {
		cfg.URL = os.Getenv("FINSIGHT_URL")
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = os.Getenv("FINSIGHT_FEED_URL")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = os.Getenv("FINSIGHT_API_URL")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = os.Getenv("FINSIGHT_UA")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}

	if cfg.MaxFeedArticles == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FEED_MAX_ARTICLES"))); err == nil && n > 0 {
			cfg.MaxFeedArticles = n
		}
	}

	// Optional durations
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}
	if cfg.RedisTTL == 0 {
		if s := os.Getenv("REDIS_TTL"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.RedisTTL = d
			}
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.BypassCache, "CACHE_BYPASS")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while still keeping flags highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("FINSIGHT_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("FINSIGHT_FEED_URL"); v != "" {
		cfg.FeedURL = v
	}
	if v := os.Getenv("FINSIGHT_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("FINSIGHT_UA"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}

	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FEED_MAX_ARTICLES"))); err == nil && n > 0 {
		cfg.MaxFeedArticles = n
	}
	if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}
	if s := os.Getenv("REDIS_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.RedisTTL = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.BypassCache, "CACHE_BYPASS")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to the flag names.
type FileConfig struct {
	URL string `yaml:"url" json:"url"`

	Feed struct {
		URL         string `yaml:"url" json:"url"`
		MaxArticles int    `yaml:"maxArticles" json:"maxArticles"`
	} `yaml:"feed" json:"feed"`

	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
	JSON      string `yaml:"json" json:"json"`

	API struct {
		Base string `yaml:"base" json:"base"`
		UA   string `yaml:"ua" json:"ua"`
	} `yaml:"api" json:"api"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		Bypass      bool          `yaml:"bypass" json:"bypass"`
	} `yaml:"cache" json:"cache"`

	Redis struct {
		Addr string        `yaml:"addr" json:"addr"`
		TTL  time.Duration `yaml:"ttl" json:"ttl"`
	} `yaml:"redis" json:"redis"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	// Defaults from flag parsing that file config may override when flags not set
	const (
		outputDefault          = "report.md"
		cacheDirDefault        = ".finsight-cache"
		maxFeedArticlesDefault = 10
	)

	if cfg.URL == "" && fc.URL != "" {
		cfg.URL = fc.URL
	}
	if cfg.FeedURL == "" && fc.Feed.URL != "" {
		cfg.FeedURL = fc.Feed.URL
	}
	if (cfg.MaxFeedArticles == 0 || cfg.MaxFeedArticles == maxFeedArticlesDefault) && fc.Feed.MaxArticles > 0 {
		cfg.MaxFeedArticles = fc.Feed.MaxArticles
	}

	if (cfg.OutputPath == "" || cfg.OutputPath == outputDefault) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if fc.OutputPDF != "" && cfg.OutputPDFPath == "" {
		cfg.OutputPDFPath = fc.OutputPDF
	}
	if cfg.JSONPath == "" && fc.JSON != "" {
		cfg.JSONPath = fc.JSON
	}

	if cfg.APIBaseURL == "" && fc.API.Base != "" {
		cfg.APIBaseURL = fc.API.Base
	}
	if cfg.UserAgent == "" && fc.API.UA != "" {
		cfg.UserAgent = fc.API.UA
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == cacheDirDefault) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if !cfg.BypassCache && fc.Cache.Bypass {
		cfg.BypassCache = true
	}

	if cfg.RedisAddr == "" && fc.Redis.Addr != "" {
		cfg.RedisAddr = fc.Redis.Addr
	}
	if cfg.RedisTTL == 0 && fc.Redis.TTL > 0 {
		cfg.RedisTTL = fc.Redis.TTL
	}

	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if trim(cfg.URL) == "" && trim(cfg.FeedURL) == "" {
		return errors.New("config: url or feed.url is required")
	}
	if trim(cfg.URL) != "" && trim(cfg.FeedURL) != "" {
		return errors.New("config: url and feed.url are mutually exclusive")
	}
	if trim(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if trim(cfg.APIBaseURL) == "" {
		return errors.New("config: api.base is required (or set FINSIGHT_API_URL)")
	}
	if cfg.MaxFeedArticles < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}

func trim(s string) string {
	i := 0
	j := len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}

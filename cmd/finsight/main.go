package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finsightio/finsight/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath  string
		pageURL     string
		feedURL     string
		feedMax     int
		outputPath  string
		pdfPath     string
		jsonPath    string
		apiBase     string
		userAgent   string
		timeout     time.Duration
		attempts    int
		verbose     bool
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		cacheStrict bool
		cacheBypass bool
		redisAddr   string
		redisTTL    time.Duration
	)

	flag.StringVar(&configPath, "config", os.Getenv("FINSIGHT_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&pageURL, "url", "", "Article URL to analyze")
	flag.StringVar(&feedURL, "feed.url", "", "RSS/Atom feed URL for batch analysis (mutually exclusive with -url)")
	flag.IntVar(&feedMax, "feed.maxArticles", 10, "Maximum feed articles to analyze per run")
	flag.StringVar(&outputPath, "output", "report.md", "Path to write the Markdown report (a directory in feed mode)")
	flag.StringVar(&pdfPath, "output.pdf", "", "Optional path to write a PDF rendition of the report")
	flag.StringVar(&jsonPath, "output.json", "", "Optional path to write the raw analysis result as JSON")
	flag.StringVar(&apiBase, "api.base", os.Getenv("FINSIGHT_API_URL"), "Analysis API base URL")
	flag.StringVar(&userAgent, "api.ua", "", "Custom User-Agent for outgoing requests")
	flag.DurationVar(&timeout, "timeout", 15*time.Second, "Per-request timeout")
	flag.IntVar(&attempts, "attempts", 2, "Maximum attempts per request, including the first")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&cacheDir, "cache.dir", ".finsight-cache", "Cache directory path")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cacheBypass, "cache.bypass", false, "Skip cache reads and always fetch and analyze fresh")
	flag.StringVar(&redisAddr, "redis.addr", os.Getenv("REDIS_ADDR"), "Redis address for the result cache (empty uses file cache)")
	flag.DurationVar(&redisTTL, "redis.ttl", 0, "TTL for Redis result entries; 0 keeps them indefinitely")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		URL:              pageURL,
		FeedURL:          feedURL,
		MaxFeedArticles:  feedMax,
		OutputPath:       outputPath,
		OutputPDFPath:    pdfPath,
		JSONPath:         jsonPath,
		APIBaseURL:       apiBase,
		UserAgent:        userAgent,
		RequestTimeout:   timeout,
		MaxAttempts:      attempts,
		Verbose:          verbose,
		CacheDir:         cacheDir,
		CacheMaxAge:      cacheMaxAge,
		CacheClear:       cacheClear,
		CacheStrictPerms: cacheStrict,
		BypassCache:      cacheBypass,
		RedisAddr:        redisAddr,
		RedisTTL:         redisTTL,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		// Environment takes precedence over file values while explicit flags
		// stay highest through their env-backed defaults.
		app.ApplyEnvOverrides(&cfg)
	}
	app.ApplyEnvToConfig(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the page yielded too little text for
		// analysis, 1 for all other failures.
		if errors.Is(err, app.ErrInsufficientText) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/finsightio/finsight/internal/analysis"
	"github.com/finsightio/finsight/internal/cache"
	"github.com/finsightio/finsight/internal/extract"
	"github.com/finsightio/finsight/internal/feed"
	"github.com/finsightio/finsight/internal/fetch"
	"github.com/finsightio/finsight/internal/render"
)

const defaultUserAgent = "finsight/2.0 (+https://github.com/finsightio/finsight)"

// ErrInsufficientText is returned when the extracted article text is too short
// for meaningful analysis. Per the exit code policy, this condition should
// result in a non-zero process exit.
var ErrInsufficientText = fmt.Errorf("insufficient article text")

type App struct {
	cfg       Config
	fetcher   *fetch.Client
	analyzer  *analysis.Client
	feeds     *feed.Parser
	results   cache.ResultCache
	httpCache *cache.HTTPCache
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	a := &App{cfg: cfg}
	if cfg.CacheDir != "" {
		// Apply cache invalidation controls before any reads
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			// Purge page and result caches by age; ignore errors to avoid failing startup
			_, _ = cache.PurgePageCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
			_, _ = cache.PurgeJSONCacheByAge(filepath.Join(cfg.CacheDir, "results"), cfg.CacheMaxAge)
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir}
	}

	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// Best-effort preflight: a cold Redis degrades to uncached runs
			// downstream, so warn rather than fail startup.
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed; continuing")
		}
		a.results = &cache.RedisResultCache{Client: client, TTL: cfg.RedisTTL}
	case cfg.CacheDir != "":
		a.results = &cache.FileResultCache{
			Dir:         filepath.Join(cfg.CacheDir, "results"),
			StrictPerms: cfg.CacheStrictPerms,
		}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	httpClient := newTunedHTTPClient()
	a.fetcher = &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       attempts,
		PerRequestTimeout: timeout,
		Cache:             a.httpCache,
		BypassCache:       cfg.BypassCache,
	}
	a.analyzer = &analysis.Client{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: httpClient,
		UserAgent:  cfg.UserAgent,
	}
	a.feeds = &feed.Parser{Client: a.fetcher}
	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

func (a *App) Run(ctx context.Context) error {
	if a.cfg.FeedURL != "" {
		return a.runFeed(ctx)
	}
	return a.runOne(ctx, a.cfg.URL, a.cfg.OutputPath, a.cfg.OutputPDFPath, a.cfg.JSONPath)
}

// runFeed analyzes every article the feed lists, writing one report per
// article under OutputPath (treated as a directory). A single failing article
// does not abort the batch.
func (a *App) runFeed(ctx context.Context) error {
	limit := a.cfg.MaxFeedArticles
	if limit <= 0 {
		limit = 10
	}
	items, err := a.feeds.ArticleURLs(ctx, a.cfg.FeedURL, limit)
	if err != nil {
		return fmt.Errorf("list feed articles: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("feed has no linked articles: %s", a.cfg.FeedURL)
	}
	if err := os.MkdirAll(a.cfg.OutputPath, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	succeeded := 0
	for _, it := range items {
		base := cache.URLKey(it.URL)[:12]
		out := filepath.Join(a.cfg.OutputPath, base+".md")
		var pdf, sidecar string
		if a.cfg.OutputPDFPath != "" {
			pdf = filepath.Join(a.cfg.OutputPath, base+".pdf")
		}
		if a.cfg.JSONPath != "" {
			sidecar = filepath.Join(a.cfg.OutputPath, base+".json")
		}
		if err := a.runOne(ctx, it.URL, out, pdf, sidecar); err != nil {
			log.Warn().Err(err).Str("url", it.URL).Msg("article analysis failed")
			continue
		}
		succeeded++
	}
	log.Info().Int("succeeded", succeeded).Int("total", len(items)).Msg("feed run complete")
	if succeeded == 0 {
		return fmt.Errorf("all %d feed articles failed", len(items))
	}
	return nil
}

func (a *App) runOne(ctx context.Context, pageURL string, outPath string, pdfPath string, jsonPath string) error {
	res, title, err := a.analyzeURL(ctx, pageURL)
	if err != nil {
		return err
	}

	report := render.Markdown(pageURL, title, res)
	if err := os.WriteFile(outPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info().Str("out", outPath).Int("companies", res.TotalCompanies).Msg("wrote report")

	if pdfPath != "" {
		if err := render.WritePDF(report, pdfPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", pdfPath).Msg("wrote pdf")
	}
	if jsonPath != "" {
		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
			return fmt.Errorf("write result json: %w", err)
		}
	}
	return nil
}

// analyzeURL runs fetch → extract → sufficiency gate → cached analysis for a
// single article and returns the result plus the page title for the report
// heading.
func (a *App) analyzeURL(ctx context.Context, pageURL string) (*analysis.Result, string, error) {
	body, _, err := a.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("fetch article: %w", err)
	}
	doc := extract.FromHTML(body)
	if len(doc.Text) < analysis.MinTextChars {
		return nil, "", fmt.Errorf("%w: got %d characters from %s", ErrInsufficientText, len(doc.Text), pageURL)
	}

	if a.results != nil && !a.cfg.BypassCache {
		if raw, ok, err := a.results.Get(ctx, pageURL); err == nil && ok {
			var cached analysis.Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug().Str("url", pageURL).Msg("analysis result served from cache")
				return &cached, doc.Title, nil
			}
		}
	}

	res, err := a.analyzer.Analyze(ctx, doc.Text)
	if err != nil {
		return nil, "", fmt.Errorf("analyze article: %w", err)
	}
	if a.results != nil {
		if raw, err := json.Marshal(res); err == nil {
			if err := a.results.Save(ctx, pageURL, raw); err != nil {
				log.Warn().Err(err).Str("url", pageURL).Msg("result cache save failed")
			}
		}
	}
	return res, doc.Title, nil
}

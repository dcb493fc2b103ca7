package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const longParagraph = "Apple reported record quarterly revenue driven by services growth, raised " +
	"its dividend, and announced an expanded buyback program for shareholders worldwide."

func articlePage(title string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<article><p>%s</p></article>
</body></html>`, title, longParagraph)
}

const cannedResult = `{
	"summary": "Apple posted record revenue and raised its dividend.",
	"companies": [{
		"name": "Apple", "ticker": "AAPL", "sentiment": "positive", "confidence": 0.91,
		"sentiment_scores": {"negative": 0.03, "neutral": 0.06, "positive": 0.91},
		"stock_data": {
			"price": 189.5, "change_pct": 2.43, "volume": 51000000,
			"market_cap": 2950000000000, "market_cap_formatted": "$2.95T",
			"day_high": 191.2, "day_low": 186.8
		},
		"predicted_impact": "Strong bullish momentum - High confidence positive outlook",
		"data_status": "success"
	}],
	"total_companies": 1
}`

func newArticleServer(t *testing.T, title string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage(title))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAnalysisServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, cannedResult)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_SingleArticleEndToEnd(t *testing.T) {
	article := newArticleServer(t, "Apple earnings")
	api := newAnalysisServer(t, nil)
	dir := t.TempDir()

	cfg := Config{
		URL:        article.URL,
		OutputPath: filepath.Join(dir, "report.md"),
		JSONPath:   filepath.Join(dir, "result.json"),
		APIBaseURL: api.URL,
		CacheDir:   filepath.Join(dir, "cache"),
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{
		"# FinSight: Apple earnings",
		"### Apple (AAPL)",
		"- Market cap: $2.95T",
	} {
		if !strings.Contains(string(report), want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	sidecar, err := os.ReadFile(cfg.JSONPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if !strings.Contains(string(sidecar), `"total_companies": 1`) {
		t.Fatalf("unexpected sidecar: %s", sidecar)
	}
}

func TestRun_SecondRunServedFromResultCache(t *testing.T) {
	article := newArticleServer(t, "Apple earnings")
	var calls int32
	api := newAnalysisServer(t, &calls)
	dir := t.TempDir()

	cfg := Config{
		URL:        article.URL,
		OutputPath: filepath.Join(dir, "report.md"),
		APIBaseURL: api.URL,
		CacheDir:   filepath.Join(dir, "cache"),
	}
	for i := 0; i < 2; i++ {
		a, err := New(context.Background(), cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := a.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		a.Close()
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 analysis call across runs, got %d", got)
	}
}

func TestRun_InsufficientTextIsSentinel(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><article><p>Too short.</p></article></body></html>")
	}))
	t.Cleanup(article.Close)
	api := newAnalysisServer(t, nil)
	dir := t.TempDir()

	cfg := Config{
		URL:        article.URL,
		OutputPath: filepath.Join(dir, "report.md"),
		APIBaseURL: api.URL,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	err = a.Run(context.Background())
	if !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("expected ErrInsufficientText, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no report for rejected article")
	}
}

func TestRun_FeedBatchIsolatesFailures(t *testing.T) {
	good := newArticleServer(t, "Apple earnings")
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusNotFound)
	}))
	t.Cleanup(bad.Close)
	api := newAnalysisServer(t, nil)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel>
<item><title>Good</title><link>%s</link></item>
<item><title>Bad</title><link>%s</link></item>
</channel></rss>`, good.URL, bad.URL)
	}))
	t.Cleanup(feedSrv.Close)

	dir := t.TempDir()
	cfg := Config{
		FeedURL:    feedSrv.URL,
		OutputPath: filepath.Join(dir, "reports"),
		APIBaseURL: api.URL,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one report from the surviving article, got %d", len(entries))
	}
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
	cfg := Config{URL: "https://flag.example.com/a", OutputPath: "custom.md"}
	var fc FileConfig
	fc.URL = "https://file.example.com/b"
	fc.Output = "file.md"
	fc.API.Base = "https://api.example.com"
	fc.Cache.MaxAge = 24 * time.Hour

	ApplyFileConfig(&cfg, fc)
	if cfg.URL != "https://flag.example.com/a" {
		t.Fatalf("flag URL should win, got %q", cfg.URL)
	}
	if cfg.OutputPath != "custom.md" {
		t.Fatalf("flag output should win, got %q", cfg.OutputPath)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("file should fill unset api base, got %q", cfg.APIBaseURL)
	}
	if cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("file should fill unset cache max age, got %v", cfg.CacheMaxAge)
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsight.yaml")
	body := `url: https://news.example.com/apple
api:
  base: https://api.example.com
feed:
  maxArticles: 5
cache:
  dir: /tmp/fincache
verbose: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if fc.URL != "https://news.example.com/apple" || fc.API.Base != "https://api.example.com" {
		t.Fatalf("unexpected config: %+v", fc)
	}
	if fc.Feed.MaxArticles != 5 || fc.Cache.Dir != "/tmp/fincache" || !fc.Verbose {
		t.Fatalf("unexpected config: %+v", fc)
	}
}

func TestApplyEnvToConfig_DoesNotOverrideExplicit(t *testing.T) {
	t.Setenv("FINSIGHT_API_URL", "https://env.example.com")
	t.Setenv("FEED_MAX_ARTICLES", "7")

	cfg := Config{APIBaseURL: "https://flag.example.com"}
	ApplyEnvToConfig(&cfg)
	if cfg.APIBaseURL != "https://flag.example.com" {
		t.Fatalf("explicit api base should win, got %q", cfg.APIBaseURL)
	}
	if cfg.MaxFeedArticles != 7 {
		t.Fatalf("env should fill unset feed limit, got %d", cfg.MaxFeedArticles)
	}
}

func TestApplyEnvOverrides_EnvBeatsFile(t *testing.T) {
	t.Setenv("FINSIGHT_API_URL", "https://env.example.com")

	cfg := Config{APIBaseURL: "https://file.example.com"}
	ApplyEnvOverrides(&cfg)
	if cfg.APIBaseURL != "https://env.example.com" {
		t.Fatalf("env override should win, got %q", cfg.APIBaseURL)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := Config{URL: "https://a", OutputPath: "out.md", APIBaseURL: "https://api"}
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := ValidateConfig(Config{OutputPath: "out.md", APIBaseURL: "https://api"}); err == nil {
		t.Fatalf("expected error for missing url")
	}
	both := valid
	both.FeedURL = "https://feed"
	if err := ValidateConfig(both); err == nil {
		t.Fatalf("expected error for url and feed together")
	}
	noAPI := Config{URL: "https://a", OutputPath: "out.md"}
	if err := ValidateConfig(noAPI); err == nil {
		t.Fatalf("expected error for missing api base")
	}
}

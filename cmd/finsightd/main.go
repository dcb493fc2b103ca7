package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/finsightio/finsight/internal/cache"
	"github.com/finsightio/finsight/internal/llm"
	"github.com/finsightio/finsight/internal/nlp"
	"github.com/finsightio/finsight/internal/server"
	"github.com/finsightio/finsight/internal/stocks"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		addr        string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		quotesBase  string
		cacheDir    string
		cacheStrict bool
		verbose     bool
	)

	flag.StringVar(&addr, "addr", ":5000", "Listen address")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.StringVar(&quotesBase, "quotes.base", os.Getenv("QUOTES_BASE_URL"), "Base URL of the chart-style quote endpoint")
	flag.StringVar(&cacheDir, "cache.dir", ".finsight-cache", "Directory for the prompt cache; empty disables caching")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if llmModel == "" {
		log.Error().Msg("llm.model is required (or set LLM_MODEL)")
		os.Exit(1)
	}

	transportCfg := openai.DefaultConfig(llmKey)
	if llmBaseURL != "" {
		transportCfg.BaseURL = llmBaseURL
	}
	provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}

	// Quick connectivity check by listing models. Best-effort: an unreachable
	// backend surfaces per-request errors later, so warn instead of failing.
	preflight(provider)

	var prompts *cache.PromptCache
	if cacheDir != "" {
		prompts = &cache.PromptCache{Dir: cacheDir, StrictPerms: cacheStrict}
	}

	srv := &server.Server{
		Model: llmModel,
		Pipeline: &server.Pipeline{
			Analyst: &nlp.Analyst{Client: provider, Model: llmModel, Cache: prompts},
			Quotes:  &stocks.Fetcher{BaseURL: quotesBase},
		},
	}

	log.Info().Str("addr", addr).Str("model", llmModel).Msg("finsightd listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func preflight(lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

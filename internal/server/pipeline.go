package server

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/finsightio/finsight/internal/analysis"
	"github.com/finsightio/finsight/internal/nlp"
	"github.com/finsightio/finsight/internal/stocks"
)

// Pipeline runs the full article analysis: summarize, extract companies,
// resolve tickers, classify per-company sentiment, attach quote data, and
// derive the impact line.
type Pipeline struct {
	Analyst *nlp.Analyst
	Quotes  *stocks.Fetcher
}

// summaryUnavailable substitutes for the summary when the model call fails;
// a missing summary alone does not fail the analysis.
const summaryUnavailable = "Summary unavailable"

// AnalyzeArticle processes one article's text. Failures are isolated per
// step and per company: a company whose ticker cannot be resolved or whose
// sentiment call fails is skipped, and quote errors are carried in the
// record's data_status instead of aborting.
func (p *Pipeline) AnalyzeArticle(ctx context.Context, text string) (*analysis.Result, error) {
	summary, err := p.Analyst.Summarize(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("summarization failed")
		summary = summaryUnavailable
	}

	companies, err := p.Analyst.ExtractCompanies(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("company extraction failed")
		companies = nil
	}
	if len(companies) == 0 {
		log.Info().Msg("no companies found in article")
		return &analysis.Result{Summary: summary, Companies: []analysis.Company{}}, nil
	}
	log.Info().Int("count", len(companies)).Strs("companies", companies).Msg("companies extracted")

	records := make([]analysis.Company, 0, len(companies))
	for _, name := range companies {
		ticker, err := p.Analyst.ResolveTicker(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("company", name).Msg("ticker resolution failed; skipping")
			continue
		}
		if ticker == nlp.TickerUnknown {
			log.Warn().Str("company", name).Msg("no ticker found; skipping")
			continue
		}

		sentiment, confidence, scores, err := p.Analyst.ClassifySentiment(ctx, text, name)
		if err != nil {
			log.Warn().Err(err).Str("company", name).Msg("sentiment classification failed; skipping")
			continue
		}

		quote := p.Quotes.Quote(ctx, ticker)

		records = append(records, analysis.Company{
			Name:       name,
			Ticker:     quote.Ticker,
			Sentiment:  sentiment,
			Confidence: round3(confidence),
			SentimentScores: analysis.SentimentScores{
				Negative: round3(scores.Negative),
				Neutral:  round3(scores.Neutral),
				Positive: round3(scores.Positive),
			},
			StockData: analysis.StockData{
				Price:              quote.Price,
				ChangePct:          quote.ChangePct,
				Volume:             quote.Volume,
				MarketCap:          quote.MarketCap,
				MarketCapFormatted: stocks.FormatMarketCap(quote.MarketCap),
				DayHigh:            quote.DayHigh,
				DayLow:             quote.DayLow,
			},
			PredictedImpact: stocks.PredictImpact(sentiment, confidence, quote.ChangePct),
			DataStatus:      quote.Status,
		})
	}

	log.Info().Int("companies", len(records)).Msg("analysis complete")
	return &analysis.Result{
		Summary:        summary,
		Companies:      records,
		TotalCompanies: len(records),
	}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

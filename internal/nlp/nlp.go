package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/finsightio/finsight/internal/analysis"
	"github.com/finsightio/finsight/internal/cache"
	"github.com/finsightio/finsight/internal/llm"
)

// TickerUnknown is the sentinel the model is instructed to return when it
// cannot resolve a company to a listed ticker. Companies resolving to it are
// dropped from the analysis.
const TickerUnknown = "UNKNOWN"

const (
	// maxPromptChars caps how much article text is embedded in a prompt.
	maxPromptChars = 4000
	// maxSentimentChars bounds the classification excerpt when no sentence
	// mentions the company directly.
	maxSentimentChars = 1024
	// maxRelevantSentences bounds the company-scoped excerpt.
	maxRelevantSentences = 5
)

// ErrEmptyCompletion indicates the model returned no usable content.
var ErrEmptyCompletion = errors.New("empty completion")

// sleepFn is replaceable in tests to avoid real retry delays.
var sleepFn = time.Sleep

// Analyst runs the prompt-driven steps of the analysis pipeline against a
// chat model: summarization, company extraction, ticker resolution, and
// per-company sentiment classification. Responses are cached by model and
// prompt digest so re-analyzing an unchanged article is free.
type Analyst struct {
	Client llm.Client
	Model  string
	Cache  *cache.PromptCache
}

// Summarize produces a 2-3 sentence summary focused on financial events and
// market implications.
func (a *Analyst) Summarize(ctx context.Context, text string) (string, error) {
	system := "You are a financial analyst expert at summarizing financial news concisely."
	user := fmt.Sprintf(`You are a financial news analyst. Summarize the following financial news article in 2-3 sentences, focusing on key financial events, company performance, and market implications.

Article:
%s

Summary:`, clamp(text, maxPromptChars))

	return a.chat(ctx, system, user, 0.3, 200)
}

// ExtractCompanies lists the publicly traded companies the article mentions.
// The model's "None" sentinel and empty output both map to a nil slice.
func (a *Analyst) ExtractCompanies(ctx context.Context, text string) ([]string, error) {
	system := "You are a financial data extraction expert. Extract company names accurately."
	user := fmt.Sprintf(`You are a financial analyst. Extract ALL publicly traded companies mentioned in this article.

Instructions:
- List ONLY the company names (e.g., "Apple", "Tesla", "Microsoft")
- Include companies that are directly mentioned or clearly implied
- Return as a comma-separated list
- If no companies found, return "None"

Article:
%s

Companies (comma-separated):`, clamp(text, maxPromptChars))

	out, err := a.chat(ctx, system, user, 0.1, 100)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(out, "none") {
		return nil, nil
	}
	var companies []string
	for _, part := range strings.Split(out, ",") {
		name := strings.TrimSpace(part)
		if len(name) > 1 {
			companies = append(companies, name)
		}
	}
	return companies, nil
}

// ResolveTicker maps a company name to its stock ticker symbol, or
// TickerUnknown when the model cannot resolve one.
func (a *Analyst) ResolveTicker(ctx context.Context, company string) (string, error) {
	system := "You are a financial data expert. Provide accurate stock ticker symbols."
	user := fmt.Sprintf(`What is the stock ticker symbol for %s?

Instructions:
- Return ONLY the ticker symbol (e.g., AAPL, TSLA, MSFT)
- If the company has multiple classes of stock, return the most common one
- If you're not sure, return "UNKNOWN"
- Return ONLY the ticker, nothing else

Ticker:`, company)

	out, err := a.chat(ctx, system, user, 0.1, 10)
	if err != nil {
		return TickerUnknown, err
	}
	fields := strings.Fields(strings.ToUpper(out))
	if len(fields) == 0 {
		return TickerUnknown, nil
	}
	return strings.Trim(fields[0], `".`), nil
}

// ClassifySentiment scores the article's tone toward one company. The text is
// narrowed to sentences mentioning the company before classification so that
// multi-company articles do not bleed sentiment across companies.
func (a *Analyst) ClassifySentiment(ctx context.Context, text string, company string) (string, float64, analysis.SentimentScores, error) {
	excerpt := relevantExcerpt(text, company)
	system := "You are a financial sentiment classifier. Respond with strict JSON only."
	user := fmt.Sprintf(`Classify the sentiment of the following financial text toward %s.

Respond with strict JSON of exactly this shape, probabilities summing to 1:
{"negative": 0.0, "neutral": 0.0, "positive": 0.0}

Text:
%s`, company, excerpt)

	out, err := a.chat(ctx, system, user, 0.0, 60)
	if err != nil {
		return "", 0, analysis.SentimentScores{}, err
	}
	var scores analysis.SentimentScores
	if err := json.Unmarshal([]byte(extractJSONObject(out)), &scores); err != nil {
		return "", 0, analysis.SentimentScores{}, fmt.Errorf("parse sentiment JSON: %w", err)
	}
	label, confidence := dominant(scores)
	return label, confidence, scores, nil
}

// chat performs one cached chat completion with a single short-backoff retry
// on transient failure, mirroring how the rest of the pipeline treats the
// model as a flaky remote dependency.
func (a *Analyst) chat(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	if a.Client == nil || strings.TrimSpace(a.Model) == "" {
		return "", errors.New("analyst not configured")
	}
	var key string
	if a.Cache != nil {
		key = cache.KeyFrom(a.Model, system+"\n\n"+user)
		if raw, ok, _ := a.Cache.Get(ctx, key); ok {
			var stored struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(raw, &stored); err == nil && strings.TrimSpace(stored.Content) != "" {
				return stored.Content, nil
			}
		}
	}

	req := openai.ChatCompletionRequest{
		Model: a.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		N:           1,
	}
	resp, err := a.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		sleepFn(100 * time.Millisecond)
		resp, err = a.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	if a.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"content": out})
		_ = a.Cache.Save(ctx, key, payload)
	}
	return out, nil
}

// relevantExcerpt keeps the sentences that mention the company, up to
// maxRelevantSentences, falling back to the leading text when none do.
func relevantExcerpt(text string, company string) string {
	needle := strings.ToLower(company)
	var relevant []string
	for _, sentence := range strings.Split(text, ".") {
		if strings.Contains(strings.ToLower(sentence), needle) {
			relevant = append(relevant, strings.TrimSpace(sentence))
			if len(relevant) == maxRelevantSentences {
				break
			}
		}
	}
	if len(relevant) == 0 {
		return clamp(text, maxSentimentChars)
	}
	return strings.Join(relevant, ". ")
}

// extractJSONObject tolerates models that wrap the JSON object in prose or
// code fences by slicing from the first '{' to the last '}'.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func dominant(s analysis.SentimentScores) (string, float64) {
	label, confidence := analysis.SentimentNeutral, s.Neutral
	if s.Positive > confidence {
		label, confidence = analysis.SentimentPositive, s.Positive
	}
	if s.Negative > confidence {
		label, confidence = analysis.SentimentNegative, s.Negative
	}
	return label, confidence
}

func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

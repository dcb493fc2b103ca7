package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_AnalyzeDecodesResult(t *testing.T) {
	var gotPath, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotText = req.Text
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Result{
			Summary: "Apple beat expectations.",
			Companies: []Company{{
				Name:       "Apple",
				Ticker:     "AAPL",
				Sentiment:  SentimentPositive,
				Confidence: 0.91,
				SentimentScores: SentimentScores{
					Negative: 0.03, Neutral: 0.06, Positive: 0.91,
				},
				StockData: StockData{
					Price: 189.5, ChangePct: 2.4, Volume: 51_000_000,
					MarketCap: 2_950_000_000_000, MarketCapFormatted: "$2.95T",
					DayHigh: 191.2, DayLow: 186.8,
				},
				PredictedImpact: "Strong bullish momentum - High confidence positive outlook",
				DataStatus:      "success",
			}},
			TotalCompanies: 1,
		})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	res, err := c.Analyze(context.Background(), "A sufficiently long financial article body.")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if gotPath != "/analyze" {
		t.Fatalf("expected POST /analyze, got %q", gotPath)
	}
	if gotText != "A sufficiently long financial article body." {
		t.Fatalf("request text mismatch: %q", gotText)
	}
	if res.Summary != "Apple beat expectations." || res.TotalCompanies != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	co := res.Companies[0]
	if co.Ticker != "AAPL" || co.Sentiment != SentimentPositive {
		t.Fatalf("unexpected company: %+v", co)
	}
	if co.StockData.MarketCapFormatted != "$2.95T" {
		t.Fatalf("unexpected stock data: %+v", co.StockData)
	}
}

func TestClient_AnalyzeSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Text must be at least 100 characters long for meaningful analysis",
		})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.Analyze(context.Background(), "too short")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "at least 100 characters") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
}

func TestClient_AnalyzeRequiresBaseURL(t *testing.T) {
	c := &Client{}
	if _, err := c.Analyze(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}

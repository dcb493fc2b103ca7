// Command analyze-stub serves canned analysis responses so the CLI and the
// browser extension can be developed without a chat model or quote backend.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type analyzeRequest struct {
	Text string `json:"text"`
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":5001"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":      "healthy",
			"api_version": "stub",
			"model":       "canned",
		})
	})
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "POST required"})
			return
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "No JSON data provided"})
			return
		}
		if len(req.Text) < 100 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "Text must be at least 100 characters long for meaningful analysis",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(cannedResult(req.Text))
	})

	log.Printf("analyze-stub listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// cannedResult flips sentiment on a crude keyword check so stub runs still
// produce visibly different reports for different inputs.
func cannedResult(text string) map[string]any {
	sentiment := "positive"
	scores := map[string]float64{"negative": 0.03, "neutral": 0.06, "positive": 0.91}
	impact := "Strong bullish momentum - High confidence positive outlook"
	lower := strings.ToLower(text)
	if strings.Contains(lower, "loss") || strings.Contains(lower, "lawsuit") || strings.Contains(lower, "recall") {
		sentiment = "negative"
		scores = map[string]float64{"negative": 0.88, "neutral": 0.07, "positive": 0.05}
		impact = "Strong bearish pressure - High confidence negative outlook"
	}
	return map[string]any{
		"summary": "Stubbed summary of the submitted article.",
		"companies": []map[string]any{{
			"name":             "Apple",
			"ticker":           "AAPL",
			"sentiment":        sentiment,
			"confidence":       scores[sentiment],
			"sentiment_scores": scores,
			"stock_data": map[string]any{
				"price":                189.5,
				"change_pct":           2.43,
				"volume":               51000000,
				"market_cap":           2950000000000,
				"market_cap_formatted": "$2.95T",
				"day_high":             191.2,
				"day_low":              186.8,
			},
			"predicted_impact": impact,
			"data_status":      "success",
		}},
		"total_companies": 1,
	}
}

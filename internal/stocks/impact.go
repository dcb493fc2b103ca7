package stocks

import "github.com/finsightio/finsight/internal/analysis"

// PredictImpact derives a short-term market impact line from sentiment,
// classifier confidence, and the day's price action. The rule table is fixed;
// the exact strings are part of the UI contract.
func PredictImpact(sentiment string, confidence float64, changePct float64) string {
	switch {
	case sentiment == analysis.SentimentPositive && confidence > 0.7:
		if changePct > 2 {
			return "Strong bullish momentum - High confidence positive outlook"
		}
		return "Likely short-term positive momentum"
	case sentiment == analysis.SentimentNegative && confidence > 0.7:
		if changePct < -2 {
			return "Strong bearish pressure - High confidence negative outlook"
		}
		return "Potential short-term downward pressure"
	case sentiment == analysis.SentimentPositive && confidence > 0.5:
		return "Moderate positive sentiment - Watch for upside"
	case sentiment == analysis.SentimentNegative && confidence > 0.5:
		return "Moderate negative sentiment - Caution advised"
	default:
		return "Neutral outlook - Limited immediate impact expected"
	}
}

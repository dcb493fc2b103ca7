package render

import (
	"fmt"
	"strings"

	"github.com/finsightio/finsight/internal/analysis"
	"github.com/finsightio/finsight/internal/stocks"
)

// Markdown renders an analysis result as a report. Output is deterministic
// for a fixed result so reports can be diffed across runs.
func Markdown(pageURL string, title string, res *analysis.Result) string {
	var b strings.Builder

	heading := strings.TrimSpace(title)
	if heading == "" {
		heading = "Article analysis"
	}
	fmt.Fprintf(&b, "# FinSight: %s\n\n", heading)
	if pageURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", pageURL)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(strings.TrimSpace(res.Summary))
	b.WriteString("\n\n")

	if len(res.Companies) == 0 {
		b.WriteString("No publicly traded companies were identified in this article.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Companies (%d)\n\n", res.TotalCompanies)
	for _, co := range res.Companies {
		fmt.Fprintf(&b, "### %s (%s)\n\n", co.Name, co.Ticker)
		fmt.Fprintf(&b, "- Sentiment: %s (confidence %.3f)\n", co.Sentiment, co.Confidence)
		fmt.Fprintf(&b, "- Scores: negative %.3f / neutral %.3f / positive %.3f\n",
			co.SentimentScores.Negative, co.SentimentScores.Neutral, co.SentimentScores.Positive)
		fmt.Fprintf(&b, "- Price: $%.2f (%+.2f%%)\n", co.StockData.Price, co.StockData.ChangePct)
		fmt.Fprintf(&b, "- Day range: $%.2f - $%.2f\n", co.StockData.DayLow, co.StockData.DayHigh)
		fmt.Fprintf(&b, "- Volume: %s\n", groupThousands(co.StockData.Volume))
		fmt.Fprintf(&b, "- Market cap: %s\n", co.StockData.MarketCapFormatted)
		fmt.Fprintf(&b, "- Predicted impact: %s\n", co.PredictedImpact)
		if co.DataStatus != stocks.StatusOK {
			fmt.Fprintf(&b, "- Data status: %s\n", co.DataStatus)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

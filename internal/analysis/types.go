package analysis

// Sentiment labels emitted by the analysis backend.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// MinTextChars is the backend's minimum article length for meaningful
// analysis. Callers validate extracted text against it before dispatching;
// the backend rejects shorter submissions with a 400.
const MinTextChars = 100

// SentimentScores is the per-label probability triple for one company.
type SentimentScores struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// StockData carries the quote snapshot attached to a company record.
type StockData struct {
	Price              float64 `json:"price"`
	ChangePct          float64 `json:"change_pct"`
	Volume             int64   `json:"volume"`
	MarketCap          int64   `json:"market_cap"`
	MarketCapFormatted string  `json:"market_cap_formatted"`
	DayHigh            float64 `json:"day_high"`
	DayLow             float64 `json:"day_low"`
}

// Company is one analyzed company: identity, sentiment, quote, and the
// rule-derived impact line.
type Company struct {
	Name            string          `json:"name"`
	Ticker          string          `json:"ticker"`
	Sentiment       string          `json:"sentiment"`
	Confidence      float64         `json:"confidence"`
	SentimentScores SentimentScores `json:"sentiment_scores"`
	StockData       StockData       `json:"stock_data"`
	PredictedImpact string          `json:"predicted_impact"`
	DataStatus      string          `json:"data_status"`
}

// Result is the full analysis response for one article.
type Result struct {
	Summary        string    `json:"summary"`
	Companies      []Company `json:"companies"`
	TotalCompanies int       `json:"total_companies"`
}

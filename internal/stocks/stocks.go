package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Quote statuses carried through to the company record's data_status field.
const (
	StatusOK     = "success"
	StatusNoData = "No data available"
)

// Quote is a point-in-time snapshot for one ticker.
type Quote struct {
	Ticker    string
	Price     float64
	ChangePct float64
	Volume    int64
	MarketCap int64
	DayHigh   float64
	DayLow    float64
	Status    string
}

// Fetcher retrieves quotes from a chart-style JSON endpoint
// (<base>/v8/finance/chart/<ticker>?range=5d&interval=1d). Quote data is
// best-effort: failures produce a zeroed quote carrying the error in Status
// rather than aborting the article analysis.
type Fetcher struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				MarketCap int64 `json:"marketCap"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close  []float64 `json:"close"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Quote fetches recent daily bars and derives price, day change, and range.
// Fewer than two closes means no change can be computed; that yields the
// zeroed "No data available" quote the original pipeline also produces.
func (f *Fetcher) Quote(ctx context.Context, ticker string) Quote {
	q, err := f.fetch(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("quote fetch failed")
		return Quote{Ticker: ticker, Status: fmt.Sprintf("Error: %v", err)}
	}
	return q
}

func (f *Fetcher) fetch(ctx context.Context, ticker string) (Quote, error) {
	if strings.TrimSpace(f.BaseURL) == "" {
		return Quote{}, fmt.Errorf("missing quote base url")
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", strings.TrimRight(f.BaseURL, "/"), ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("new request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	hc := f.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Quote{}, fmt.Errorf("quote status: %d", resp.StatusCode)
	}
	var cr chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Quote{}, fmt.Errorf("decode chart: %w", err)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return Quote{Ticker: ticker, Status: StatusNoData}, nil
	}
	res := cr.Chart.Result[0]
	bars := res.Indicators.Quote[0]
	closes := bars.Close
	if len(closes) < 2 {
		return Quote{Ticker: ticker, Status: StatusNoData}, nil
	}

	price := closes[len(closes)-1]
	prev := closes[len(closes)-2]
	changePct := 0.0
	if prev != 0 {
		changePct = (price - prev) / prev * 100
	}
	q := Quote{
		Ticker:    ticker,
		Price:     round2(price),
		ChangePct: round2(changePct),
		MarketCap: res.Meta.MarketCap,
		DayHigh:   round2(price),
		DayLow:    round2(price),
		Status:    StatusOK,
	}
	if n := len(bars.High); n > 0 {
		q.DayHigh = round2(bars.High[n-1])
	}
	if n := len(bars.Low); n > 0 {
		q.DayLow = round2(bars.Low[n-1])
	}
	if n := len(bars.Volume); n > 0 {
		q.Volume = bars.Volume[n-1]
	}
	return q, nil
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

// FormatMarketCap renders a market cap in the compact human form used by the
// popup UI: $2.95T, $812.40B, $54.10M, or a comma-grouped dollar figure for
// anything smaller.
func FormatMarketCap(marketCap int64) string {
	switch {
	case marketCap >= 1_000_000_000_000:
		return fmt.Sprintf("$%.2fT", float64(marketCap)/1_000_000_000_000)
	case marketCap >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", float64(marketCap)/1_000_000_000)
	case marketCap >= 1_000_000:
		return fmt.Sprintf("$%.2fM", float64(marketCap)/1_000_000)
	default:
		return "$" + groupThousands(marketCap)
	}
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

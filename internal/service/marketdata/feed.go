package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"SpotCast/internal/domain/models"
	xhttp "SpotCast/pkg/http"
	"SpotCast/pkg/logger"
)

// Feed fetches daily OHLCV bars from a chart-style quote API.
type Feed struct {
	client *xhttp.Client
	base   string
	log    *logger.Logger
}

// NewFeed creates a market data feed against the given API base URL.
func NewFeed(log *logger.Logger, client *xhttp.Client, baseURL string) *Feed {
	return &Feed{client: client, base: baseURL, log: log}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchPeriod downloads the full requested period for a symbol.
func (f *Feed) FetchPeriod(ctx context.Context, symbol, period string) (models.Series, error) {
	params := map[string][]string{
		"range":    {apiRange(period)},
		"interval": {"1d"},
	}
	return f.fetch(ctx, symbol, params)
}

// FetchSince downloads bars strictly after the given date.
func (f *Feed) FetchSince(ctx context.Context, symbol string, since time.Time) (models.Series, error) {
	params := map[string][]string{
		"period1":  {strconv.FormatInt(since.Unix(), 10)},
		"period2":  {strconv.FormatInt(time.Now().Unix(), 10)},
		"interval": {"1d"},
	}
	bars, err := f.fetch(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	out := bars[:0]
	for _, b := range bars {
		if b.Date.After(since) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *Feed) fetch(ctx context.Context, symbol string, params map[string][]string) (models.Series, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s", f.base, symbol)

	var body chartResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		QueryParams: params,
		Headers:     map[string]string{"User-Agent": "spotcast/1.0"},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMarketDataUnavailable, err)
	}

	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMarketDataUnavailable, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result for %s", models.ErrMarketDataUnavailable, symbol)
	}

	bars, err := normalize(body.Chart.Result[0])
	if err != nil {
		return nil, err
	}

	f.log.Debug("market data fetched",
		logger.String("symbol", symbol),
		logger.Int("bars", len(bars)))
	return bars, nil
}

// normalize flattens the column-oriented payload into bars, dropping rows
// with a missing close. A structural mismatch between the timestamp axis
// and the quote columns is a hard upstream error.
func normalize(res chartResult) (models.Series, error) {
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: missing quote block", models.ErrMarketDataUnavailable)
	}
	q := res.Indicators.Quote[0]

	n := len(res.Timestamp)
	if n == 0 {
		return nil, fmt.Errorf("%w: no timestamps", models.ErrMarketDataUnavailable)
	}
	if len(q.Close) != n || len(q.Open) != n || len(q.High) != n || len(q.Low) != n {
		return nil, fmt.Errorf("%w: column length mismatch", models.ErrMarketDataUnavailable)
	}

	bars := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		if q.Close[i] == nil {
			continue
		}
		b := models.Bar{
			Date:  time.Unix(res.Timestamp[i], 0).UTC(),
			Close: *q.Close[i],
		}
		if q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if q.High[i] != nil {
			b.High = *q.High[i]
		}
		if q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: all rows missing close", models.ErrMarketDataUnavailable)
	}
	return bars, nil
}

// apiRange maps a lookback token to the upstream range parameter.
func apiRange(period string) string {
	switch period {
	case "1m":
		return "1mo"
	case "6m":
		return "6mo"
	case "1y":
		return "1y"
	case "5y":
		return "5y"
	case "max":
		return "max"
	default:
		return "1y"
	}
}

package rates

import (
	"context"
	"fmt"

	"SpotCast/internal/domain/models"
	xhttp "SpotCast/pkg/http"
)

// ERAPISource reads the open.er-api.com aggregator. The feed is already
// quoted against the canonical base currency.
type ERAPISource struct {
	client *xhttp.Client
	url    string
}

// NewERAPISource creates the aggregator fallback source.
func NewERAPISource(client *xhttp.Client, url string) *ERAPISource {
	return &ERAPISource{client: client, url: url}
}

func (s *ERAPISource) Name() string { return "er-api" }

type erapiResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

func (s *ERAPISource) Fetch(ctx context.Context) (map[string]float64, error) {
	var body erapiResponse
	if err := s.client.GetJSON(ctx, s.url, nil, &body); err != nil {
		return nil, fmt.Errorf("er-api fetch: %w", err)
	}
	if body.Result != "success" || len(body.Rates) == 0 {
		return nil, fmt.Errorf("er-api returned result %q", body.Result)
	}
	if body.BaseCode != "" && body.BaseCode != models.BaseCurrency {
		return nil, fmt.Errorf("er-api unexpected base %q", body.BaseCode)
	}

	rates := make(map[string]float64, len(body.Rates))
	for currency, rate := range body.Rates {
		if rate > 0 {
			rates[currency] = rate
		}
	}
	rates[models.BaseCurrency] = 1.0
	return rates, nil
}

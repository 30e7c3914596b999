package rates

import (
	"context"
	"encoding/xml"
	"fmt"

	"SpotCast/internal/domain/models"
	xhttp "SpotCast/pkg/http"
)

// ECBSource reads the European Central Bank daily reference feed. The feed
// is EUR-based XML; rates are re-based to the canonical base currency by
// dividing through the base currency's own quote.
type ECBSource struct {
	client *xhttp.Client
	url    string
}

// NewECBSource creates the central-bank reference source.
func NewECBSource(client *xhttp.Client, url string) *ECBSource {
	return &ECBSource{client: client, url: url}
}

func (s *ECBSource) Name() string { return "ecb" }

type ecbEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Cube    struct {
		Cube struct {
			Time  string `xml:"time,attr"`
			Cubes []struct {
				Currency string  `xml:"currency,attr"`
				Rate     float64 `xml:"rate,attr"`
			} `xml:"Cube"`
		} `xml:"Cube"`
	} `xml:"Cube"`
}

// Fetch downloads and parses the feed, returning rates relative to the
// canonical base currency with the base itself at 1.0.
func (s *ECBSource) Fetch(ctx context.Context) (map[string]float64, error) {
	var raw []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.url,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("ecb fetch: %w", err)
	}

	var env ecbEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("ecb parse: %w", err)
	}

	perEUR := make(map[string]float64, len(env.Cube.Cube.Cubes))
	for _, c := range env.Cube.Cube.Cubes {
		if c.Currency != "" && c.Rate > 0 {
			perEUR[c.Currency] = c.Rate
		}
	}

	baseQuote, ok := perEUR[models.BaseCurrency]
	if !ok || baseQuote <= 0 {
		return nil, fmt.Errorf("ecb feed missing %s quote", models.BaseCurrency)
	}

	rates := make(map[string]float64, len(perEUR)+1)
	for currency, rate := range perEUR {
		rates[currency] = rate / baseQuote
	}
	rates["EUR"] = 1 / baseQuote
	rates[models.BaseCurrency] = 1.0
	return rates, nil
}

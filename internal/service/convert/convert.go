package convert

import (
	"fmt"

	"SpotCast/internal/domain/models"
)

// GramsPerTroyOunce is the exact troy ounce definition in grams.
const GramsPerTroyOunce = 31.1034768

// ToTroyOunce converts a per-gram price to a per-troy-ounce price.
func ToTroyOunce(pricePerGram float64) float64 {
	return pricePerGram * GramsPerTroyOunce
}

// FromTroyOunce converts a per-troy-ounce price back to per-gram.
func FromTroyOunce(pricePerOunce float64) float64 {
	return pricePerOunce / GramsPerTroyOunce
}

// ToTenGram converts a per-gram price to a per-ten-gram price.
func ToTenGram(pricePerGram float64) float64 {
	return pricePerGram * 10
}

// Convert maps a canonical price (base currency per gram) to the display
// price of the given region. Region names are case-insensitive. The rates
// map must carry the region currency relative to the base currency.
func Convert(canonical float64, region string, rates map[string]float64) (float64, error) {
	r, err := models.NormalizeRegion(region)
	if err != nil {
		return 0, err
	}

	rate := 1.0
	if r.Currency != models.BaseCurrency {
		v, ok := rates[r.Currency]
		if !ok || v <= 0 {
			return 0, fmt.Errorf("%w: no rate for %s", models.ErrRatesUnavailable, r.Currency)
		}
		rate = v
	}

	switch r.Unit {
	case "oz":
		return ToTroyOunce(canonical) * rate, nil
	case "10g":
		return ToTenGram(canonical) * rate, nil
	default:
		return canonical * rate, nil
	}
}

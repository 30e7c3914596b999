package convert

import (
	"fmt"

	"SpotCast/internal/domain/models"
)

// FormatPrice renders a regional price with the region's display symbol
// and unit. Large-magnitude currencies drop decimals by convention.
func FormatPrice(price float64, region models.Region) string {
	if region.Currency == "INR" {
		return fmt.Sprintf("%s%.0f/%s", region.Symbol, price, region.Unit)
	}
	return fmt.Sprintf("%s%.2f/%s", region.Symbol, price, region.Unit)
}

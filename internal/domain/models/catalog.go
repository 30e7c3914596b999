package models

import (
	"fmt"
	"strings"
)

// BaseCurrency is the currency all canonical prices and FX rates refer to.
const BaseCurrency = "USD"

// Region bundles the currency, physical unit and display symbol of one
// market/display context.
type Region struct {
	Name     string
	Currency string
	Unit     string
	Symbol   string
}

// Fixed catalogs. The system serves exactly these commodities and regions;
// anything else is a hard input error, never a silent default.
var (
	CommoditySymbols = map[string]string{
		"gold":      "GC=F",
		"silver":    "SI=F",
		"crude_oil": "CL=F",
	}

	Regions = map[string]Region{
		"india":  {Name: "india", Currency: "INR", Unit: "10g", Symbol: "₹"},
		"us":     {Name: "us", Currency: "USD", Unit: "oz", Symbol: "$"},
		"europe": {Name: "europe", Currency: "EUR", Unit: "g", Symbol: "€"},
	}
)

// Commodities returns the supported commodity names in a stable order.
func Commodities() []string {
	return []string{"gold", "silver", "crude_oil"}
}

// RegionNames returns the supported region names in a stable order.
func RegionNames() []string {
	return []string{"india", "us", "europe"}
}

// ValidateCommodity checks membership in the commodity catalog.
func ValidateCommodity(commodity string) error {
	if _, ok := CommoditySymbols[commodity]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedCommodity, commodity)
	}
	return nil
}

// NormalizeRegion lowercases the region name and resolves it against the
// catalog. Region matching is case-insensitive by contract.
func NormalizeRegion(region string) (Region, error) {
	r, ok := Regions[strings.ToLower(region)]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q (must be one of: %s)",
			ErrUnsupportedRegion, region, strings.Join(RegionNames(), ", "))
	}
	return r, nil
}

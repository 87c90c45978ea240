package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"IndexSync/internal/model"
)

// VolumeScaleExp is the power of ten separating the exchange's base currency
// unit from the series' volume unit (1e8, one "yi").
const VolumeScaleExp = 8

// ParseNumber parses an exchange figure that may carry thousands separators.
func ParseNumber(raw string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if clean == "" {
		return decimal.Decimal{}, fmt.Errorf("empty number")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse number %q: %w", raw, err)
	}
	return d, nil
}

// TradingValueToVolume converts a raw trading value in base currency, e.g.
// "123,456,789,000", into the scaled volume unit rounded to two places (1234.57).
func TradingValueToVolume(raw string) (decimal.Decimal, error) {
	v, err := ParseNumber(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Shift(-VolumeScaleExp).Round(model.PricePlaces), nil
}

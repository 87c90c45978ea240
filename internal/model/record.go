package model

import "github.com/shopspring/decimal"

// PricePlaces is the number of decimal places kept for every numeric field
// of the persisted series.
const PricePlaces = 2

// Record is one trading day of the persisted index series. Volume is the
// trading value expressed in the scaled monetary unit (base currency / 1e8).
type Record struct {
	Date   Date
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Rounded returns r with every numeric field rounded to PricePlaces.
func (r Record) Rounded() Record {
	return Record{
		Date:   r.Date,
		Open:   r.Open.Round(PricePlaces),
		High:   r.High.Round(PricePlaces),
		Low:    r.Low.Round(PricePlaces),
		Close:  r.Close.Round(PricePlaces),
		Volume: r.Volume.Round(PricePlaces),
	}
}

// TradingDay is a row of the authoritative exchange report: closing index
// level and the day's trading value, already converted to the scaled unit.
type TradingDay struct {
	Date   Date
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// OHLCBar is a daily bar from the secondary price feed. The feed's own volume
// is a share count and is deliberately not carried.
type OHLCBar struct {
	Date  Date
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

package collector

import (
	"context"
	"fmt"

	"IndexSync/internal/model"
)

// TradingValueSource serves the authoritative monthly exchange report:
// closing level and trading value per trading day.
type TradingValueSource interface {
	// FetchMonth returns every trading day of the month containing month.
	FetchMonth(ctx context.Context, month model.Date) ([]model.TradingDay, error)
	Name() string
}

// OHLCSource serves daily open/high/low/close bars.
type OHLCSource interface {
	// FetchRange returns the bars between start and end, both inclusive.
	FetchRange(ctx context.Context, start, end model.Date) ([]model.OHLCBar, error)
	Name() string
}

// SourceFetchError wraps a network or payload failure of one source window.
// The collector logs it and continues with no data for that window.
type SourceFetchError struct {
	Source string
	Window string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Window, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

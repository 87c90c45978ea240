package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"IndexSync/internal/model"
	"IndexSync/internal/normalize"
)

// MockTradingValueSource returns fixed monthly reports for development and testing.
type MockTradingValueSource struct {
	Days       []model.TradingDay
	Errs       map[model.Date]error // keyed by first day of month
	Calls      []model.Date
	CalledAt   []time.Time
	ReturnedAt []time.Time
	Delay      time.Duration // simulated request latency
}

func (m *MockTradingValueSource) Name() string { return "mock-twse" }

func (m *MockTradingValueSource) FetchMonth(_ context.Context, month model.Date) ([]model.TradingDay, error) {
	month = month.FirstOfMonth()
	m.Calls = append(m.Calls, month)
	m.CalledAt = append(m.CalledAt, time.Now())
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	defer func() { m.ReturnedAt = append(m.ReturnedAt, time.Now()) }()
	if err, ok := m.Errs[month]; ok {
		return nil, err
	}
	var out []model.TradingDay
	for _, d := range m.Days {
		if d.Date.FirstOfMonth() == month {
			out = append(out, d)
		}
	}
	return out, nil
}

// MockOHLCSource returns fixed bars for development and testing.
type MockOHLCSource struct {
	Bars  []model.OHLCBar
	Err   error
	Calls int
}

func (m *MockOHLCSource) Name() string { return "mock-ohlc" }

func (m *MockOHLCSource) FetchRange(_ context.Context, start, end model.Date) ([]model.OHLCBar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.OHLCBar
	for _, b := range m.Bars {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Collector fetches both source frames for a date window. Source failures are
// absorbed here and surface as empty frames; malformed dates are not.
type Collector struct {
	TradingValues TradingValueSource
	OHLC          OHLCSource
	interval      time.Duration
}

// NewCollector creates a Collector that stays idle for at least interval
// between the end of one monthly report call and the start of the next.
func NewCollector(tv TradingValueSource, ohlc OHLCSource, interval time.Duration) *Collector {
	return &Collector{
		TradingValues: tv,
		OHLC:          ohlc,
		interval:      interval,
	}
}

// idleGate returns a limiter whose only token is spent at done, so Wait
// blocks until done+interval.
func (c *Collector) idleGate(done time.Time) *rate.Limiter {
	gate := rate.NewLimiter(rate.Every(c.interval), 1)
	gate.AllowN(done, 1)
	return gate
}

// TradingDays fetches one monthly report per calendar month spanning
// [start, end], sequentially, then keeps the days inside the window sorted by date.
func (c *Collector) TradingDays(ctx context.Context, start, end model.Date) ([]model.TradingDay, error) {
	var all []model.TradingDay
	var gate *rate.Limiter
	for _, month := range Months(start, end) {
		if gate != nil {
			if err := gate.Wait(ctx); err != nil {
				return nil, fmt.Errorf("wait for %s slot: %w", c.TradingValues.Name(), err)
			}
		}
		log.Printf("[INFO] downloading %s report %04d/%02d", c.TradingValues.Name(), month.Year(), int(month.Month()))
		days, err := c.TradingValues.FetchMonth(ctx, month)
		gate = c.idleGate(time.Now())
		if err != nil {
			var mde *normalize.MalformedDateError
			if errors.As(err, &mde) {
				return nil, err
			}
			fe := &SourceFetchError{
				Source: c.TradingValues.Name(),
				Window: fmt.Sprintf("%04d/%02d", month.Year(), int(month.Month())),
				Err:    err,
			}
			log.Printf("[WARN] %v, treating month as empty", fe)
			continue
		}
		if len(days) == 0 {
			log.Printf("[WARN] %s %04d/%02d: no data", c.TradingValues.Name(), month.Year(), int(month.Month()))
		}
		all = append(all, days...)
	}

	kept := all[:0]
	for _, d := range all {
		if !d.Date.Before(start) && !d.Date.After(end) {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })
	return kept, nil
}

// OHLCBars fetches the secondary frame for [start, end]. Any failure yields
// an empty frame.
func (c *Collector) OHLCBars(ctx context.Context, start, end model.Date) []model.OHLCBar {
	log.Printf("[INFO] downloading %s bars %s ~ %s", c.OHLC.Name(), start, end)
	bars, err := c.OHLC.FetchRange(ctx, start, end)
	if err != nil {
		fe := &SourceFetchError{Source: c.OHLC.Name(), Window: start.String() + "~" + end.String(), Err: err}
		log.Printf("[WARN] %v, treating window as empty", fe)
		return nil
	}
	if len(bars) == 0 {
		log.Printf("[WARN] %s returned no bars", c.OHLC.Name())
	}
	return bars
}

// Months lists the first day of every calendar month touched by [start, end].
func Months(start, end model.Date) []model.Date {
	var months []model.Date
	last := end.FirstOfMonth()
	for m := start.FirstOfMonth(); !m.After(last); m = model.NewDate(m.Year(), m.Month()+1, 1) {
		months = append(months, m)
	}
	return months
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"

	"IndexSync/internal/model"
	"IndexSync/internal/normalize"
)

// DefaultTWSEURL is the exchange's monthly market summary (FMTQIK) endpoint.
const DefaultTWSEURL = "https://www.twse.com.tw/exchangeReport/FMTQIK"

// TWSEFetcher implements TradingValueSource using the TWSE monthly report.
// Reports of months that have fully elapsed are cached for the process lifetime.
type TWSEFetcher struct {
	URL    string
	client *resty.Client
	cache  *cache.Cache
	loc    *time.Location // exchange calendar deciding when a month has elapsed
	now    func() time.Time
}

// NewTWSEFetcher creates a fetcher with optional proxy support. loc is the
// exchange timezone.
func NewTWSEFetcher(url, proxyURL string, timeout time.Duration, loc *time.Location) *TWSEFetcher {
	if url == "" {
		url = DefaultTWSEURL
	}
	if loc == nil {
		loc = time.Local
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TWSEFetcher{
		URL:    url,
		client: client,
		cache:  cache.New(cache.NoExpiration, time.Hour),
		loc:    loc,
		now:    time.Now,
	}
}

func (f *TWSEFetcher) Name() string { return "twse" }

// twseReport is the FMTQIK envelope. Each data row is
// [date(ROC), shares traded, trading value, trade count, index close, change].
type twseReport struct {
	Stat string     `json:"stat"`
	Data [][]string `json:"data"`
}

const (
	colDate         = 0
	colTradingValue = 2
	colIndexClose   = 4
)

func (f *TWSEFetcher) FetchMonth(ctx context.Context, month model.Date) ([]model.TradingDay, error) {
	month = month.FirstOfMonth()
	key := fmt.Sprintf("%04d%02d", month.Year(), int(month.Month()))
	if cached, ok := f.cache.Get(key); ok {
		return cached.([]model.TradingDay), nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"response": "json",
			"date":     key + "01",
		}).
		Get(f.URL)
	if err != nil {
		return nil, fmt.Errorf("twse request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twse: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var report twseReport
	if err := json.Unmarshal(resp.Body(), &report); err != nil {
		return nil, fmt.Errorf("twse decode: %w", err)
	}
	if report.Stat != "OK" || report.Data == nil {
		return nil, fmt.Errorf("twse: stat %q, no data", report.Stat)
	}

	days, err := parseTWSERows(report.Data)
	if err != nil {
		return nil, err
	}

	nextMonth := model.NewDate(month.Year(), month.Month()+1, 1)
	if !model.DateOf(f.now().In(f.loc)).Before(nextMonth) {
		f.cache.Set(key, days, cache.NoExpiration)
	}
	return days, nil
}

func parseTWSERows(rows [][]string) ([]model.TradingDay, error) {
	days := make([]model.TradingDay, 0, len(rows))
	for i, row := range rows {
		if len(row) <= colIndexClose {
			return nil, fmt.Errorf("twse row %d: want at least %d columns, got %d", i, colIndexClose+1, len(row))
		}
		date, err := normalize.ParseROCDate(row[colDate])
		if err != nil {
			return nil, err
		}
		volume, err := normalize.TradingValueToVolume(row[colTradingValue])
		if err != nil {
			return nil, fmt.Errorf("twse row %d trading value: %w", i, err)
		}
		closePrice, err := normalize.ParseNumber(row[colIndexClose])
		if err != nil {
			return nil, fmt.Errorf("twse row %d index close: %w", i, err)
		}
		days = append(days, model.TradingDay{Date: date, Close: closePrice, Volume: volume})
	}
	return days, nil
}

package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestYahooFetcher_FetchRange(t *testing.T) {
	taipei := time.FixedZone("CST", 8*3600)
	start := day(2025, time.December, 8)
	end := day(2025, time.December, 10)

	// 09:00 local on each day; the 9th is a null (holiday) bar, the 11th is
	// outside the requested window.
	ts := func(d int) int64 { return time.Date(2025, time.December, d, 9, 0, 0, 0, taipei).Unix() }

	var period1, period2 int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/^TWII" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		period1, _ = strconv.ParseInt(r.URL.Query().Get("period1"), 10, 64)
		period2, _ = strconv.ParseInt(r.URL.Query().Get("period2"), 10, 64)
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d,%d],
			"indicators":{"quote":[{
				"open":[17950.5,null,18010,18100],
				"high":[18050,null,18100,18200],
				"low":[17900,null,17980,18050],
				"close":[17990,null,18080,18150],
				"volume":[5000000000,null,4800000000,4700000000]}]}}],"error":null}}`,
			ts(8), ts(9), ts(10), ts(11))
	}))
	defer srv.Close()

	f := NewYahooFetcher("^TWII", taipei, "", 5*time.Second)
	f.BaseURL = srv.URL

	bars, err := f.FetchRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period1 != start.In(taipei).Unix() {
		t.Errorf("period1: expected %d, got %d", start.In(taipei).Unix(), period1)
	}
	if want := day(2025, time.December, 11).In(taipei).Unix(); period2 != want {
		t.Errorf("period2 must be the exclusive day after end: expected %d, got %d", want, period2)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Date != start || bars[1].Date != end {
		t.Errorf("unexpected dates %s, %s", bars[0].Date, bars[1].Date)
	}
	if bars[0].Open.StringFixed(2) != "17950.50" || bars[0].Close.StringFixed(2) != "17990.00" {
		t.Errorf("unexpected first bar %+v", bars[0])
	}
}

func TestYahooFetcher_EmptyWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"indicators":{"quote":[{}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("^TWII", time.UTC, "", 5*time.Second)
	f.BaseURL = srv.URL
	bars, err := f.FetchRange(context.Background(), day(2025, time.December, 13), day(2025, time.December, 14))
	if err != nil {
		t.Fatalf("empty window must not be an error, got %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected no bars, got %d", len(bars))
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("^NOPE", time.UTC, "", 5*time.Second)
	f.BaseURL = srv.URL
	if _, err := f.FetchRange(context.Background(), day(2025, time.December, 1), day(2025, time.December, 2)); err == nil {
		t.Error("expected api error")
	}
}

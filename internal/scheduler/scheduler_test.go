package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"IndexSync/internal/collector"
	"IndexSync/internal/model"
	"IndexSync/internal/notifier"
	"IndexSync/internal/recorder"
	"IndexSync/internal/updater"
)

type memRecorder struct{ events []*recorder.RunEvent }

func (m *memRecorder) RecordRun(evt *recorder.RunEvent) error {
	m.events = append(m.events, evt)
	return nil
}
func (m *memRecorder) Close() error { return nil }

func newScheduler(t *testing.T, seriesPath string, tv *collector.MockTradingValueSource) (*Scheduler, *memRecorder) {
	t.Helper()
	runner := updater.NewRunner(collector.NewCollector(tv, &collector.MockOHLCSource{}, 0), seriesPath, time.UTC)
	runner.Now = func() time.Time { return time.Date(2025, time.December, 10, 14, 0, 0, 0, time.UTC) }
	rec := &memRecorder{}
	return NewScheduler(context.Background(), runner, rec, nil, time.UTC), rec
}

func TestRegister_InvalidSpec(t *testing.T) {
	s, _ := newScheduler(t, "unused.csv", &collector.MockTradingValueSource{})
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	if err := s.Register("0 30 14 * * 1-5"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNow_RecordsUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twii.csv")
	if err := os.WriteFile(path, []byte("date,open,high,low,close,volume\n2025/12/8,1,1,1,1,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tv := &collector.MockTradingValueSource{Days: []model.TradingDay{{
		Date:   model.NewDate(2025, time.December, 9),
		Close:  decimal.RequireFromString("18000"),
		Volume: decimal.RequireFromString("500"),
	}}}
	s, rec := newScheduler(t, path, tv)

	res, err := s.RunNow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != updater.OutcomeUpdated {
		t.Errorf("expected %s, got %s", updater.OutcomeUpdated, res.Outcome)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(rec.events))
	}
	evt := rec.events[0]
	if evt.Outcome != "UPDATED" || evt.BatchSize != 1 || evt.SeriesSize != 2 || evt.LastAfter != "2025-12-09" {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestRunNow_RecordsFailure(t *testing.T) {
	s, rec := newScheduler(t, filepath.Join(t.TempDir(), "missing.csv"), &collector.MockTradingValueSource{})
	if _, err := s.RunNow(); err == nil {
		t.Fatal("expected error for missing series")
	}
	if len(rec.events) != 1 || rec.events[0].Outcome != "FAILED" || rec.events[0].Error == "" {
		t.Errorf("expected failed run to be recorded, got %+v", rec.events)
	}
}

func TestRunNow_FetchFailureIsNotARunFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twii.csv")
	if err := os.WriteFile(path, []byte("date,open,high,low,close,volume\n2025/12/8,1,1,1,1,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tv := &collector.MockTradingValueSource{Errs: map[model.Date]error{
		model.NewDate(2025, time.December, 1): errors.New("dial tcp: i/o timeout"),
	}}
	s, rec := newScheduler(t, path, tv)

	res, err := s.RunNow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != updater.OutcomeNoData || rec.events[0].Outcome != "NO_DATA" {
		t.Errorf("expected NO_DATA, got %s / %s", res.Outcome, rec.events[0].Outcome)
	}
}

func TestRunTask_ReportsFailure(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		sent = append(sent, payload["text"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, rec := newScheduler(t, filepath.Join(t.TempDir(), "missing.csv"), &collector.MockTradingValueSource{})
	s.Notifier = notifier.NewTelegramNotifier("TOKEN", "42", "")
	s.Notifier.APIBase = srv.URL

	s.RunTask()

	if len(rec.events) != 1 || rec.events[0].Outcome != "FAILED" {
		t.Errorf("expected failed run to be recorded, got %+v", rec.events)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "資料更新失敗") || !strings.Contains(sent[0], "missing.csv") {
		t.Errorf("expected one failure notification, got %q", sent)
	}
}

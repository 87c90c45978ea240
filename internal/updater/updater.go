package updater

import (
	"context"
	"fmt"
	"log"
	"time"

	"IndexSync/internal/collector"
	"IndexSync/internal/model"
	"IndexSync/internal/reconcile"
	"IndexSync/internal/series"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeUpToDate: the series already reaches today; nothing was fetched.
	OutcomeUpToDate Outcome = "UP_TO_DATE"
	// OutcomeNoData: nothing complete came back; the file was not written.
	OutcomeNoData Outcome = "NO_DATA"
	// OutcomeUpdated: the series file was rewritten.
	OutcomeUpdated Outcome = "UPDATED"
)

// Result describes one run.
type Result struct {
	Outcome     Outcome
	Today       model.Date
	LastBefore  model.Date
	LastAfter   model.Date
	SourceADays int
	SourceBBars int
	Batch       []model.Record
	Incomplete  []model.Date
	Unbased     []model.Date
	Series      []model.Record // final series, only set when Outcome is OutcomeUpdated
}

// Runner performs load → fetch → reconcile → merge → save against one series file.
type Runner struct {
	Collector  *collector.Collector
	SeriesPath string
	Location   *time.Location
	Now        func() time.Time
}

// NewRunner creates a Runner using the wall clock in loc.
func NewRunner(col *collector.Collector, seriesPath string, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{Collector: col, SeriesPath: seriesPath, Location: loc, Now: time.Now}
}

// Run executes one update. The series file is read once and written at most
// once, at the very end.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log.Println("[INFO] step 1: loading existing series")
	existing, err := series.Load(r.SeriesPath)
	if err != nil {
		return nil, err
	}
	first, last, ok := series.Span(existing)
	if !ok {
		return nil, fmt.Errorf("series %s has no rows", r.SeriesPath)
	}
	log.Printf("[INFO] existing rows: %d, range %s ~ %s", len(existing), first, last)

	today := model.DateOf(r.Now().In(r.Location))
	res := &Result{Today: today, LastBefore: last, LastAfter: last}
	log.Printf("[INFO] step 2: latest date %s, today %s", last, today)
	if !last.Before(today) {
		log.Println("[INFO] series is already up to date, nothing to do")
		res.Outcome = OutcomeUpToDate
		return res, nil
	}

	// The window starts at the latest persisted day so that row is refreshed too.
	log.Printf("[INFO] step 3: downloading %s trading values %s ~ %s", r.Collector.TradingValues.Name(), last, today)
	days, err := r.Collector.TradingDays(ctx, last, today)
	if err != nil {
		return nil, fmt.Errorf("collect trading values: %w", err)
	}
	res.SourceADays = len(days)
	if len(days) == 0 {
		log.Printf("[WARN] %s returned no new data", r.Collector.TradingValues.Name())
	} else {
		log.Printf("[INFO] %s rows: %d", r.Collector.TradingValues.Name(), len(days))
	}

	log.Printf("[INFO] step 4: downloading %s OHLC", r.Collector.OHLC.Name())
	bars := r.Collector.OHLCBars(ctx, last, today)
	res.SourceBBars = len(bars)
	if len(bars) > 0 {
		log.Printf("[INFO] %s rows: %d", r.Collector.OHLC.Name(), len(bars))
	}

	log.Println("[INFO] step 5: reconciling")
	if len(days) == 0 && len(bars) == 0 {
		log.Println("[INFO] no new data, nothing to update")
		res.Outcome = OutcomeNoData
		return res, nil
	}
	rec := reconcile.Reconcile(days, bars)
	res.Batch, res.Incomplete, res.Unbased = rec.Batch, rec.Incomplete, rec.Unbased
	if len(rec.Incomplete) > 0 {
		log.Printf("[WARN] dropped %d rows without volume: %v", len(rec.Incomplete), rec.Incomplete)
	}
	if len(rec.Unbased) > 0 {
		log.Printf("[WARN] skipped %d %s dates missing from %s: %v",
			len(rec.Unbased), r.Collector.TradingValues.Name(), r.Collector.OHLC.Name(), rec.Unbased)
	}
	if len(rec.Batch) == 0 {
		log.Println("[INFO] no complete rows after reconciliation, nothing to update")
		res.Outcome = OutcomeNoData
		return res, nil
	}

	final := reconcile.Merge(existing, rec.Batch)
	log.Printf("[INFO] rows after update: %d, added/updated: %d", len(final), len(rec.Batch))

	log.Println("[INFO] step 6: saving")
	if err := series.Save(r.SeriesPath, final); err != nil {
		return nil, fmt.Errorf("save series: %w", err)
	}
	log.Printf("[INFO] saved to %s", r.SeriesPath)

	res.Outcome = OutcomeUpdated
	res.Series = final
	res.LastAfter = final[len(final)-1].Date
	return res, nil
}

// Package reconcile combines the authoritative trading-value report with the
// secondary OHLC feed into complete daily records, and splices them into the
// persisted series.
package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"IndexSync/internal/model"
)

// Field identifies one numeric column of a Record.
type Field int

const (
	Open Field = iota
	High
	Low
	Close
	Volume
	numFields
)

var fieldNames = [numFields]string{"open", "high", "low", "close", "volume"}

func (f Field) String() string { return fieldNames[f] }

// Origin identifies where a candidate field value comes from.
type Origin int

const (
	// Authoritative is the exchange report (close, trading value).
	Authoritative Origin = iota
	// Secondary is the OHLC feed.
	Secondary
	// FlatBar is the authoritative close repeated as open/high/low/close,
	// only available when the secondary feed returned nothing at all.
	FlatBar
)

// Precedence lists, per field, the origins to consult in order. The first
// origin holding a value for the date wins. Volume has a single origin: the
// secondary feed's volume is a share count and never qualifies.
var Precedence = [numFields][]Origin{
	Open:   {Secondary, FlatBar},
	High:   {Secondary, FlatBar},
	Low:    {Secondary, FlatBar},
	Close:  {Authoritative, Secondary, FlatBar},
	Volume: {Authoritative},
}

// Partial is a record under construction whose fields may be unset.
type Partial struct {
	Date   model.Date
	values [numFields]decimal.Decimal
	set    [numFields]bool
}

// With returns p with f set to v.
func (p Partial) With(f Field, v decimal.Decimal) Partial {
	p.values[f] = v
	p.set[f] = true
	return p
}

// Get returns the value of f and whether it is set.
func (p Partial) Get(f Field) (decimal.Decimal, bool) { return p.values[f], p.set[f] }

// Record returns the complete record, or false if any field is unset.
func (p Partial) Record() (model.Record, bool) {
	for f := Field(0); f < numFields; f++ {
		if !p.set[f] {
			return model.Record{}, false
		}
	}
	return model.Record{
		Date:   p.Date,
		Open:   p.values[Open],
		High:   p.values[High],
		Low:    p.values[Low],
		Close:  p.values[Close],
		Volume: p.values[Volume],
	}, true
}

// Frame is a date-keyed set of partial records from a single origin.
type Frame map[model.Date]Partial

// AuthoritativeFrame keys exchange report rows by date. A later row for the
// same date replaces an earlier one.
func AuthoritativeFrame(days []model.TradingDay) Frame {
	fr := make(Frame, len(days))
	for _, d := range days {
		fr[d.Date] = Partial{Date: d.Date}.With(Close, d.Close).With(Volume, d.Volume)
	}
	return fr
}

// SecondaryFrame keys OHLC bars by date.
func SecondaryFrame(bars []model.OHLCBar) Frame {
	fr := make(Frame, len(bars))
	for _, b := range bars {
		fr[b.Date] = Partial{Date: b.Date}.
			With(Open, b.Open).With(High, b.High).With(Low, b.Low).With(Close, b.Close)
	}
	return fr
}

// FlatBarFrame collapses each exchange close into a single-price bar.
func FlatBarFrame(days []model.TradingDay) Frame {
	fr := make(Frame, len(days))
	for _, d := range days {
		fr[d.Date] = Partial{Date: d.Date}.
			With(Open, d.Close).With(High, d.Close).With(Low, d.Close).With(Close, d.Close)
	}
	return fr
}

// Result is the outcome of a reconciliation.
type Result struct {
	// Batch holds complete records in ascending date order, one per date.
	Batch []model.Record
	// Incomplete lists base dates dropped for lack of a field (normally volume).
	Incomplete []model.Date
	// Unbased lists exchange dates skipped because the secondary frame, when
	// non-empty, has no bar for them.
	Unbased []model.Date
}

// Reconcile builds the update batch. The secondary frame supplies the set of
// dates when it is non-empty; otherwise the exchange dates do, as flat bars.
// Each field of each date is resolved independently through Precedence.
func Reconcile(days []model.TradingDay, bars []model.OHLCBar) Result {
	frames := map[Origin]Frame{
		Authoritative: AuthoritativeFrame(days),
		Secondary:     SecondaryFrame(bars),
	}
	base := frames[Secondary]
	if len(base) == 0 {
		frames[FlatBar] = FlatBarFrame(days)
		base = frames[FlatBar]
	}

	var res Result
	for date := range base {
		rec, ok := resolve(date, frames).Record()
		if !ok {
			res.Incomplete = append(res.Incomplete, date)
			continue
		}
		res.Batch = append(res.Batch, rec)
	}
	for date := range frames[Authoritative] {
		if _, ok := base[date]; !ok {
			res.Unbased = append(res.Unbased, date)
		}
	}
	sortRecords(res.Batch)
	sortDates(res.Incomplete)
	sortDates(res.Unbased)
	return res
}

func sortDates(ds []model.Date) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}

func resolve(date model.Date, frames map[Origin]Frame) Partial {
	out := Partial{Date: date}
	for f := Field(0); f < numFields; f++ {
		for _, origin := range Precedence[f] {
			if v, ok := frames[origin][date].Get(f); ok {
				out = out.With(f, v)
				break
			}
		}
	}
	return out
}

func sortRecords(recs []model.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
}

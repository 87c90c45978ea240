package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"IndexSync/internal/model"
	"IndexSync/internal/normalize"
)

// ErrNotFound is returned by Load when the series file does not exist.
var ErrNotFound = errors.New("series file not found")

// Header is the column layout of the persisted series.
var Header = []string{"date", "open", "high", "low", "close", "volume"}

// Load reads the persisted series. Columns are located by header name; extra
// columns are ignored. Rows are returned in file order.
func Load(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a series from r.
func Read(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(head))
	for i, h := range head {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make([]int, len(Header))
	for i, name := range Header {
		c, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("series header missing column %q", name)
		}
		cols[i] = c
	}

	var out []model.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, cols []int) (model.Record, error) {
	field := func(i int) (string, error) {
		if cols[i] >= len(row) {
			return "", fmt.Errorf("missing %s", Header[i])
		}
		return row[cols[i]], nil
	}
	var vals [5]decimal.Decimal

	raw, err := field(0)
	if err != nil {
		return model.Record{}, err
	}
	date, err := normalize.ParseSeriesDate(raw)
	if err != nil {
		return model.Record{}, err
	}
	for i := 1; i < len(Header); i++ {
		raw, err := field(i)
		if err != nil {
			return model.Record{}, err
		}
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return model.Record{}, fmt.Errorf("%s %q: %w", Header[i], raw, err)
		}
		vals[i-1] = v
	}
	return model.Record{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

// Write renders records as CSV with two-decimal numbers and YYYY/M/D dates.
func Write(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			normalize.FormatSeriesDate(r.Date),
			r.Open.StringFixed(model.PricePlaces),
			r.High.StringFixed(model.PricePlaces),
			r.Low.StringFixed(model.PricePlaces),
			r.Close.StringFixed(model.PricePlaces),
			r.Volume.StringFixed(model.PricePlaces),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save replaces the series file atomically: records are written to a
// temporary file in the same directory which is then renamed over path.
func Save(path string, records []model.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp series: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp series: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp series: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace series: %w", err)
	}
	return nil
}

// Span returns the earliest and latest dates of records, which need not be sorted.
func Span(records []model.Record) (first, last model.Date, ok bool) {
	if len(records) == 0 {
		return model.Date{}, model.Date{}, false
	}
	first, last = records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}

// Tail returns the last n records.
func Tail(records []model.Record, n int) []model.Record {
	if n <= 0 {
		return nil
	}
	if len(records) > n {
		return records[len(records)-n:]
	}
	return records
}

package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"IndexSync/internal/model"
)

// ROCYearOffset converts a Republic of China (Minguo) year to the Gregorian year.
const ROCYearOffset = 1911

// MalformedDateError reports a date string that cannot be resolved to a
// calendar day. It is never absorbed as a soft failure.
type MalformedDateError struct {
	Input string
	Err   error
}

func (e *MalformedDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("malformed date %q", e.Input)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// ParseROCDate converts an offset-calendar date such as "114/12/09" to the
// Gregorian day 2025-12-09.
func ParseROCDate(s string) (model.Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return model.Date{}, &MalformedDateError{Input: s, Err: fmt.Errorf("want 3 components, got %d", len(parts))}
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return model.Date{}, &MalformedDateError{Input: s, Err: err}
		}
		nums[i] = n
	}
	year, month, day := nums[0]+ROCYearOffset, time.Month(nums[1]), nums[2]
	d := model.NewDate(year, month, day)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return model.Date{}, &MalformedDateError{Input: s, Err: fmt.Errorf("no such day")}
	}
	return d, nil
}

// seriesLayout accepts both "2025/12/9" and "2025/12/09".
const seriesLayout = "2006/1/2"

// FormatSeriesDate renders d in the persisted form YYYY/M/D without zero padding.
func FormatSeriesDate(d model.Date) string {
	return fmt.Sprintf("%d/%d/%d", d.Year(), int(d.Month()), d.Day())
}

// ParseSeriesDate reads a date column value of the persisted series.
func ParseSeriesDate(s string) (model.Date, error) {
	t, err := time.Parse(seriesLayout, strings.TrimSpace(s))
	if err != nil {
		return model.Date{}, &MalformedDateError{Input: s, Err: err}
	}
	return model.DateOf(t), nil
}

package model

import "time"

// Date is a calendar day with no time-of-day or location. It is comparable and
// safe to use as a map key.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date, so NewDate(2025, 12, 32) is 2026-01-01.
func NewDate(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date { return NewDate(t.Date()) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }
func (d Date) IsZero() bool      { return d == Date{} }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, loc) }

func (d Date) Before(x Date) bool { return d.In(time.UTC).Before(x.In(time.UTC)) }
func (d Date) After(x Date) bool  { return d.In(time.UTC).After(x.In(time.UTC)) }

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date { return Date{d.y, d.m, 1} }

// String formats d as ISO-8601 (2006-01-02).
func (d Date) String() string { return d.In(time.UTC).Format("2006-01-02") }

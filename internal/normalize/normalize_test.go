package normalize

import (
	"errors"
	"testing"
	"time"

	"IndexSync/internal/model"
)

func TestParseROCDate(t *testing.T) {
	d, err := ParseROCDate("114/12/09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != model.NewDate(2025, time.December, 9) {
		t.Errorf("expected 2025-12-09, got %s", d)
	}
}

func TestParseROCDate_Malformed(t *testing.T) {
	for _, in := range []string{"114/12", "114/12/09/1", "abc/12/09", "114/13/01", "", "114-12-09"} {
		_, err := ParseROCDate(in)
		var mde *MalformedDateError
		if !errors.As(err, &mde) {
			t.Errorf("%q: expected MalformedDateError, got %v", in, err)
			continue
		}
		if mde.Input != in {
			t.Errorf("%q: error carries input %q", in, mde.Input)
		}
	}
}

func TestFormatSeriesDate_NoPadding(t *testing.T) {
	tests := []struct {
		date model.Date
		want string
	}{
		{model.NewDate(2025, time.December, 9), "2025/12/9"},
		{model.NewDate(2000, time.January, 4), "2000/1/4"},
		{model.NewDate(2024, time.October, 21), "2024/10/21"},
	}
	for _, tt := range tests {
		if got := FormatSeriesDate(tt.date); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.date, tt.want, got)
		}
	}
}

func TestParseSeriesDate_AcceptsPadding(t *testing.T) {
	want := model.NewDate(2025, time.February, 3)
	for _, in := range []string{"2025/2/3", "2025/02/03"} {
		d, err := ParseSeriesDate(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if d != want {
			t.Errorf("%q: expected %s, got %s", in, want, d)
		}
	}
	if _, err := ParseSeriesDate("2025-02-03"); err == nil {
		t.Error("expected error for dash separated date")
	}
}

func TestTradingValueToVolume(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"123,456,789,000", "1234.57"},
		{"500,000,000,000", "5000"},
		{"449,987,654,321", "4499.88"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got, err := TradingValueToVolume(tt.raw)
		if err != nil {
			t.Fatalf("%q: %v", tt.raw, err)
		}
		if got.String() != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.raw, tt.want, got.String())
		}
	}
}

func TestTradingValueToVolume_Invalid(t *testing.T) {
	for _, raw := range []string{"", "--", "1,2x3"} {
		if _, err := TradingValueToVolume(raw); err == nil {
			t.Errorf("%q: expected error", raw)
		}
	}
}

func TestParseNumber_StripsSeparators(t *testing.T) {
	got, err := ParseNumber(" 18,000.12 ")
	if err != nil {
		t.Fatal(err)
	}
	if got.StringFixed(2) != "18000.12" {
		t.Errorf("expected 18000.12, got %s", got)
	}
}

package store

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func formatFloat(f *float64) string {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

// parseFloat reads a numeric cell. Empty and non-numeric cells are null.
func parseFloat(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseInt also accepts integral floats ("100.0"), which is how integer
// columns look after a spreadsheet round trip.
func parseInt(cell string) *int64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return &n
	}
	f := parseFloat(cell)
	// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
	if f == nil || *f != math.Trunc(*f) || *f >= 1<<63 || *f < -(1<<63) {
		return nil
	}
	n := int64(*f)
	return &n
}

// parseDecimal coerces a ranking key; ok is false for empty or non-numeric cells.
func parseDecimal(cell string) (decimal.Decimal, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

const timeLayout = time.RFC3339Nano

var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime returns the zero time for cells it cannot read.
func parseTime(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeLayout, cell); err == nil {
		return t
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.ParseInLocation(layout, cell, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Ptr returns a pointer to v, for filling optional numeric fields.
func Ptr[T any](v T) *T { return &v }

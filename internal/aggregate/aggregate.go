// internal/aggregate/aggregate.go

// Package aggregate turns a flat list of expenses into the dashboard view:
// the expenses inside a timeframe window and their per-category sums.
// Everything here is pure; inputs are never modified.
package aggregate

import (
	"fmt"
	"strings"
	"time"

	"expense-hive/internal/domain"

	"github.com/shopspring/decimal"
)

type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
	Yearly  Timeframe = "yearly"
)

// FallbackColor is used for categories with no registered color.
const FallbackColor = "#000000"

// ColorMap maps a category name to its display color.
type ColorMap map[string]string

// Bucket is the sum of one category's expenses inside the window.
type Bucket struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Share is a bucket with its percentage of the total.
type Share struct {
	Bucket
	Percent float64 `json:"share"`
	Label   string  `json:"label"`
}

type Result struct {
	Timeframe Timeframe        `json:"timeframe"`
	Reference string           `json:"reference"`
	Total     float64          `json:"total"`
	Expenses  []domain.Expense `json:"expenses"`
	Buckets   []Share          `json:"buckets"`
}

// ParseTimeframe normalizes s. Unknown values are kept as they are and
// select no filtering.
func ParseTimeframe(s string) Timeframe {
	return Timeframe(strings.ToLower(strings.TrimSpace(s)))
}

func (tf Timeframe) Known() bool {
	switch tf {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ColorsFrom builds the color map from the account's categories.
func ColorsFrom(categories []domain.Category) ColorMap {
	colors := make(ColorMap, len(categories))
	for _, c := range categories {
		colors[c.Name] = c.Color
	}
	return colors
}

func (m ColorMap) resolve(name string) string {
	if c, ok := m[name]; ok && c != "" {
		return c
	}
	return FallbackColor
}

// Run filters, groups and computes shares in one pass over the input.
func Run(expenses []domain.Expense, colors ColorMap, tf Timeframe, ref time.Time) (Result, error) {
	filtered, err := Filter(expenses, tf, ref)
	if err != nil {
		return Result{}, err
	}
	buckets := Group(filtered, colors)
	shares := Shares(buckets)

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(decimal.NewFromFloat(b.Value))
	}

	return Result{
		Timeframe: tf,
		Reference: civil(ref).Format("2006-01-02"),
		Total:     total.InexactFloat64(),
		Expenses:  filtered,
		Buckets:   shares,
	}, nil
}

// Filter returns the expenses whose calendar day falls in the window that
// tf and ref describe, in input order. Any malformed date fails the whole
// call; the returned error lists every bad record.
func Filter(expenses []domain.Expense, tf Timeframe, ref time.Time) ([]domain.Expense, error) {
	days := make([]time.Time, len(expenses))
	var bad []MalformedDate
	for i, e := range expenses {
		d, err := CalendarDay(e.Date)
		if err != nil {
			bad = append(bad, MalformedDate{Index: i, ID: e.ID, Value: e.Date})
			continue
		}
		days[i] = d
	}
	if len(bad) > 0 {
		return nil, &DateError{Records: bad}
	}

	in := window(tf, civil(ref))
	filtered := make([]domain.Expense, 0, len(expenses))
	for i, e := range expenses {
		if in(days[i]) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func window(tf Timeframe, ref time.Time) func(time.Time) bool {
	switch tf {
	case Daily:
		return func(d time.Time) bool { return d.Equal(ref) }
	case Weekly:
		start := ref.AddDate(0, 0, -int(ref.Weekday()))
		end := start.AddDate(0, 0, 6)
		return func(d time.Time) bool { return !d.Before(start) && !d.After(end) }
	case Monthly:
		return func(d time.Time) bool { return d.Year() == ref.Year() && d.Month() == ref.Month() }
	case Yearly:
		return func(d time.Time) bool { return d.Year() == ref.Year() }
	default:
		return func(time.Time) bool { return true }
	}
}

// Group sums amounts per category. Buckets come out in order of first
// appearance; sums are exact for two-decimal amounts whatever the order.
func Group(expenses []domain.Expense, colors ColorMap) []Bucket {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range expenses {
		sum, ok := sums[e.Category]
		if !ok {
			order = append(order, e.Category)
			sum = decimal.Zero
		}
		sums[e.Category] = sum.Add(decimal.NewFromFloat(e.Amount))
	}

	buckets := make([]Bucket, 0, len(order))
	for _, name := range order {
		buckets = append(buckets, Bucket{
			Name:  name,
			Value: sums[name].InexactFloat64(),
			Color: colors.resolve(name),
		})
	}
	return buckets
}

// Shares computes each bucket's percentage of the total. With a zero total
// every share is zero.
func Shares(buckets []Bucket) []Share {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(decimal.NewFromFloat(b.Value))
	}

	hundred := decimal.NewFromInt(100)
	shares := make([]Share, len(buckets))
	for i, b := range buckets {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = decimal.NewFromFloat(b.Value).Mul(hundred).Div(total)
		}
		shares[i] = Share{
			Bucket:  b,
			Percent: pct.InexactFloat64(),
			Label:   pct.StringFixed(2),
		}
	}
	return shares
}

// CalendarDay reads the YYYY-MM-DD prefix of an ISO-8601 date. Whatever
// follows (time, zone) is ignored but must start with 'T' or a space.
func CalendarDay(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("date %q too short", s)
	}
	if len(s) > 10 && s[10] != 'T' && s[10] != ' ' {
		return time.Time{}, fmt.Errorf("date %q has an unexpected suffix", s)
	}
	d, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return d, nil
}

// civil drops the time of day and zone, keeping the wall-clock date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

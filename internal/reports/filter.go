// Package reports implements the filtering and aggregation behind the
// dashboard, insights and calendar endpoints. Everything here is pure:
// functions take a transaction slice plus a reference time and never touch
// the database.
package reports

import (
	"time"

	"github.com/Utpal29/coinly/internal/models"
)

// DateRange selects which window of transactions a filter keeps.
type DateRange string

const (
	RangeAll        DateRange = "all"
	RangeToday      DateRange = "today"
	RangeThisWeek   DateRange = "thisWeek"
	RangeThisMonth  DateRange = "thisMonth"
	RangeThisYear   DateRange = "thisYear"
	RangeLast30Days DateRange = "last30Days"
	RangeLast6Mo    DateRange = "last6Months"
	RangeCustom     DateRange = "custom"
)

// Filter holds the user-selected predicates applied before aggregation.
// Category "all" (or empty) bypasses the category check. Start/End are only
// consulted for RangeCustom.
type Filter struct {
	Category string
	Range    DateRange
	Start    models.Date
	End      models.Date
}

// Apply returns the subsequence of txs satisfying both predicates, order
// preserved. All date comparisons are on calendar dates normalized to
// midnight; the reference time is reduced to its calendar date first, so
// results are identical regardless of the caller's timezone offset.
func (f Filter) Apply(txs []models.Transaction, now time.Time) []models.Transaction {
	lo, hi, bounded := f.window(now)

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Category != "" && f.Category != "all" && tx.Category != f.Category {
			continue
		}
		if bounded {
			d := tx.Date.Time
			if !lo.IsZero() && d.Before(lo) {
				continue
			}
			if !hi.IsZero() && d.After(hi) {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

// window resolves the date range to inclusive [lo, hi] bounds at UTC
// midnight. A zero bound is open-ended. Unknown range values behave as
// "all".
func (f Filter) window(now time.Time) (lo, hi time.Time, bounded bool) {
	today := models.DateOf(now).Time

	switch f.Range {
	case RangeToday:
		return today, today, true
	case RangeThisWeek:
		// Sunday through Saturday of the current week, inclusive.
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return start, start.AddDate(0, 0, 6), true
	case RangeThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), true
	case RangeThisYear:
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}, true
	case RangeLast30Days:
		// Approximate window: one calendar month back, not an exact day count.
		return today.AddDate(0, -1, 0), time.Time{}, true
	case RangeLast6Mo:
		return today.AddDate(0, -6, 0), time.Time{}, true
	case RangeCustom:
		if f.Start.IsZero() && f.End.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		// End is inclusive (treated as end-of-day); dates here carry no
		// time component so a plain ≤ comparison covers it.
		return f.Start.Time, f.End.Time, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

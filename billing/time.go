package billing

import (
	"time"
)

// =============================================================================
// TIME POINT - day-granularity dates (contract periods are whole days)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) TimePoint {
	u := t.UTC()
	return NewTimePoint(u.Year(), u.Month(), u.Day())
}

func Today() TimePoint { return DateOf(time.Now()) }

// Comparison
func (tp TimePoint) Before(o TimePoint) bool        { return tp.normalize().Before(o.normalize()) }
func (tp TimePoint) Equal(o TimePoint) bool         { return tp.normalize().Equal(o.normalize()) }
func (tp TimePoint) After(o TimePoint) bool         { return tp.normalize().After(o.normalize()) }
func (tp TimePoint) BeforeOrEqual(o TimePoint) bool { return tp.Before(o) || tp.Equal(o) }
func (tp TimePoint) AfterOrEqual(o TimePoint) bool  { return tp.After(o) || tp.Equal(o) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format("2006-01-02") }

// =============================================================================
// MONTH KEY - (year, month) ledger bucket
// =============================================================================

type MonthKey struct {
	Year  int
	Month time.Month
}

func (tp TimePoint) MonthKey() MonthKey { return MonthKey{Year: tp.Year(), Month: tp.Month()} }

func (mk MonthKey) Before(o MonthKey) bool {
	if mk.Year != o.Year {
		return mk.Year < o.Year
	}
	return mk.Month < o.Month
}

func (mk MonthKey) String() string {
	return NewTimePoint(mk.Year, mk.Month, 1).Time.Format("2006-01")
}

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

func EndOfMonth(year int, month time.Month) TimePoint {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return TimePoint{Time: t}
}

// MonthsIn enumerates the calendar months touched by [start, end], in order.
func MonthsIn(start, end TimePoint) []MonthKey {
	var months []MonthKey
	current := StartOfMonth(start.Year(), start.Month())
	last := StartOfMonth(end.Year(), end.Month())
	for current.BeforeOrEqual(last) {
		months = append(months, current.MonthKey())
		current = current.AddMonths(1)
	}
	return months
}

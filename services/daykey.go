package services

import "time"

// DayLayout is the dayKey format: a UTC calendar date.
const DayLayout = "2006-01-02"

// Clock supplies the current time. Tests inject a fixed one.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// DayKey returns the UTC calendar date of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// Today returns the current dayKey of clock.
func Today(clock Clock) string {
	return DayKey(clock.Now())
}

// PrevDay returns the dayKey before day. Invalid input yields "".
func PrevDay(day string) string {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DayLayout)
}

// ValidDay reports whether day parses as a dayKey.
func ValidDay(day string) bool {
	_, err := time.Parse(DayLayout, day)
	return err == nil
}

// dayOfYear is zero-based: January 1st is 0.
func dayOfYear(day string) (int, bool) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return 0, false
	}
	return t.YearDay() - 1, true
}

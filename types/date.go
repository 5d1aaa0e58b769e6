package types

import "time"

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateRange returns every day from start to end, both inclusive.
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

package types

import "time"

// Calendar maps date -> pair -> Data and remembers the order in which dates
// and pairs were first recorded.
type Calendar struct {
	dates []time.Time
	pairs map[time.Time][]string
	data  map[time.Time]map[string]Data
}

func NewCalendar() *Calendar {
	return &Calendar{
		pairs: make(map[time.Time][]string),
		data:  make(map[time.Time]map[string]Data),
	}
}

// Add records d and reports whether it did. Snapshots are immutable: a
// second snapshot for an already recorded date and pair is refused.
func (c *Calendar) Add(d Data) bool {
	day := Day(d.Date)
	byPair, ok := c.data[day]
	if !ok {
		byPair = make(map[string]Data)
		c.data[day] = byPair
		c.dates = append(c.dates, day)
	}
	if _, seen := byPair[d.Pair]; seen {
		return false
	}
	c.pairs[day] = append(c.pairs[day], d.Pair)
	byPair[d.Pair] = d
	return true
}

// Merge appends every snapshot of other in other's order.
func (c *Calendar) Merge(other *Calendar) {
	if other == nil {
		return
	}
	for _, day := range other.dates {
		for _, pair := range other.pairs[day] {
			c.Add(other.data[day][pair])
		}
	}
}

func (c *Calendar) Get(date time.Time, pair string) (Data, bool) {
	d, ok := c.data[Day(date)][pair]
	return d, ok
}

func (c *Calendar) Dates() []time.Time {
	return append([]time.Time(nil), c.dates...)
}

func (c *Calendar) Pairs(date time.Time) []string {
	return append([]string(nil), c.pairs[Day(date)]...)
}

// Len is the number of snapshots.
func (c *Calendar) Len() int {
	n := 0
	for _, byPair := range c.data {
		n += len(byPair)
	}
	return n
}

// Each walks the snapshots in insertion order until fn returns false.
func (c *Calendar) Each(fn func(Data) bool) {
	for _, day := range c.dates {
		for _, pair := range c.pairs[day] {
			if !fn(c.data[day][pair]) {
				return
			}
		}
	}
}

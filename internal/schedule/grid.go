package schedule

import (
	"fmt"
	"time"
)

// slotLayout is the clock layout used for slot labels, e.g. "09:00 AM".
const slotLayout = "03:04 PM"

// DateLayout is the calendar-date layout accepted by the API.
const DateLayout = "2006-01-02"

// Grid is the canonical list of bookable slot labels for one day, in
// display order. Every doctor shares the same grid.
type Grid struct {
	labels []string
	index  map[string]int
}

// DefaultLabels covers 09:00 AM through 05:30 PM in half-hour steps.
var DefaultLabels = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM",
	"11:00 AM", "11:30 AM", "12:00 PM", "12:30 PM",
	"01:00 PM", "01:30 PM", "02:00 PM", "02:30 PM",
	"03:00 PM", "03:30 PM", "04:00 PM", "04:30 PM",
	"05:00 PM", "05:30 PM",
}

// NewGrid builds a grid from the given labels. Labels must be unique and
// parse with the slot layout.
func NewGrid(labels []string) (*Grid, error) {
	if len(labels) == 0 {
		labels = DefaultLabels
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		if _, err := time.Parse(slotLayout, label); err != nil {
			return nil, fmt.Errorf("invalid slot label %q: %w", label, err)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("duplicate slot label %q", label)
		}
		index[label] = i
	}

	return &Grid{labels: append([]string(nil), labels...), index: index}, nil
}

// MustDefault returns the default grid; the default labels are known good.
func MustDefault() *Grid {
	g, err := NewGrid(nil)
	if err != nil {
		panic(err)
	}
	return g
}

// Labels returns a copy of the full grid in order.
func (g *Grid) Labels() []string {
	return append([]string(nil), g.labels...)
}

// Len returns the number of slots in a day.
func (g *Grid) Len() int {
	return len(g.labels)
}

// Contains reports whether label is a canonical slot.
func (g *Grid) Contains(label string) bool {
	_, ok := g.index[label]
	return ok
}

// Subtract returns the grid minus the given booked labels, preserving
// grid order. Unknown labels are ignored.
func (g *Grid) Subtract(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		taken[label] = struct{}{}
	}

	free := make([]string, 0, len(g.labels))
	for _, label := range g.labels {
		if _, ok := taken[label]; !ok {
			free = append(free, label)
		}
	}
	return free
}

// SlotTime resolves a date and slot label to a wall-clock instant in loc.
func (g *Grid) SlotTime(date string, label string, loc *time.Location) (time.Time, error) {
	if !g.Contains(label) {
		return time.Time{}, fmt.Errorf("unknown slot label %q", label)
	}
	t, err := time.ParseInLocation(DateLayout+" "+slotLayout, date+" "+label, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ValidSlotLabel reports whether s parses as a 12-hour clock label like
// "09:00 AM". Grid membership is checked separately.
func ValidSlotLabel(s string) bool {
	_, err := time.Parse(slotLayout, s)
	return err == nil
}

// ParseDate validates a calendar date in ISO form.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// IsPastDate reports whether date is strictly before today in loc.
func IsPastDate(date string, now time.Time, loc *time.Location) (bool, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return false, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return day.Before(today), nil
}

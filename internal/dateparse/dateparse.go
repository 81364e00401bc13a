// Package dateparse turns phrases like "this weekend" or "in 2 weeks" into
// the date window used to filter events.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the wire format of event dates.
const Layout = "2006-01-02"

// Window is an inclusive range of calendar days in YYYY-MM-DD form.
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Contains reports whether date (YYYY-MM-DD) falls inside the window.
// Dates that do not parse are never contained.
func (w Window) Contains(date string) bool {
	if _, err := time.Parse(Layout, date); err != nil {
		return false
	}
	// ISO dates order lexically.
	return date >= w.From && date <= w.To
}

func (w Window) String() string {
	if w.From == w.To {
		return w.From
	}
	return w.From + " to " + w.To
}

// Parse resolves input relative to the current time.
func Parse(input string) (Window, error) {
	return ParseFrom(input, time.Now())
}

// ParseFrom resolves input relative to now. Supported forms:
//   - today, tomorrow
//   - this weekend (or weekend), next weekend
//   - this week, next week, this month, next month
//   - saturday, sat, ... (the nearest such day, today included)
//   - +N, in N days, in N weeks (from today through that day)
//   - YYYY-MM-DD, or YYYY-MM-DD..YYYY-MM-DD
func ParseFrom(input string, now time.Time) (Window, error) {
	in := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	today := midnight(now)

	switch in {
	case "today":
		return day(today), nil
	case "tomorrow":
		return day(today.AddDate(0, 0, 1)), nil
	case "weekend", "this weekend":
		sat := upcoming(today, time.Saturday)
		if today.Weekday() == time.Sunday {
			return day(today), nil
		}
		return span(sat, sat.AddDate(0, 0, 1)), nil
	case "next weekend":
		sat := upcoming(today, time.Saturday)
		if today.Weekday() != time.Sunday {
			sat = sat.AddDate(0, 0, 7)
		}
		return span(sat, sat.AddDate(0, 0, 1)), nil
	case "this week":
		return span(today, endOfWeek(today)), nil
	case "next week":
		mon := endOfWeek(today).AddDate(0, 0, 1)
		return span(mon, mon.AddDate(0, 0, 6)), nil
	case "this month":
		return span(today, firstOfMonth(today).AddDate(0, 1, -1)), nil
	case "next month":
		first := firstOfMonth(today).AddDate(0, 1, 0)
		return span(first, first.AddDate(0, 1, -1)), nil
	}

	if wd, ok := weekdays[in]; ok {
		return day(upcoming(today, wd)), nil
	}

	if m := aheadPattern.FindStringSubmatch(in); m != nil {
		n, err := strconv.Atoi(m[1] + m[2])
		if err != nil || n > 366 {
			return Window{}, fmt.Errorf("%q is too far ahead", input)
		}
		if strings.HasPrefix(m[3], "week") {
			n *= 7
		}
		return span(today, today.AddDate(0, 0, n)), nil
	}

	if from, to, ok := strings.Cut(in, ".."); ok {
		f, err1 := time.ParseInLocation(Layout, strings.TrimSpace(from), now.Location())
		t, err2 := time.ParseInLocation(Layout, strings.TrimSpace(to), now.Location())
		if err1 != nil || err2 != nil {
			return Window{}, fmt.Errorf("%q is not a date range (want YYYY-MM-DD..YYYY-MM-DD)", input)
		}
		if t.Before(f) {
			return Window{}, fmt.Errorf("%q ends before it starts", input)
		}
		return span(f, t), nil
	}

	if d, err := time.ParseInLocation(Layout, in, now.Location()); err == nil {
		return day(d), nil
	}

	return Window{}, fmt.Errorf("unrecognised date %q", input)
}

var aheadPattern = regexp.MustCompile(`^(?:\+(\d+)|in (\d+))(?: (days?|weeks?))?$`)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func day(t time.Time) Window { return span(t, t) }

func span(from, to time.Time) Window {
	return Window{From: from.Format(Layout), To: to.Format(Layout)}
}

// upcoming returns the next target weekday on or after t.
func upcoming(t time.Time, target time.Weekday) time.Time {
	return t.AddDate(0, 0, (int(target)-int(t.Weekday())+7)%7)
}

// endOfWeek returns the Sunday closing t's Monday-first week.
func endOfWeek(t time.Time) time.Time {
	return upcoming(t, time.Sunday)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Event is a food event. StartDate is YYYY-MM-DD and StartTime is HH:mm.
type Event struct {
	ID               string   `json:"_id,omitempty"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Location         string   `json:"location"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate,omitempty"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime,omitempty"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	MaxAttendees     *int     `json:"maxAttendees,omitempty"`
	CurrentAttendees int      `json:"currentAttendees"`
	ImageURL         string   `json:"image_url"`
	Organizer        string   `json:"organizer"`
	ContactEmail     string   `json:"contactEmail,omitempty"`
	ContactPhone     string   `json:"contactPhone,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IsActive         bool     `json:"isActive"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

// DefaultCurrency is assumed when an event carries none.
const DefaultCurrency = "ZAR"

const (
	wireDate = "2006-01-02"
	wireTime = "15:04"
)

// IsFullyBooked reports whether a capped event has no spots left.
func (e Event) IsFullyBooked() bool {
	return e.MaxAttendees != nil && e.CurrentAttendees >= *e.MaxAttendees
}

// SpotsRemaining returns the open spots, or ok=false for uncapped events.
func (e Event) SpotsRemaining() (spots int, ok bool) {
	if e.MaxAttendees == nil {
		return 0, false
	}
	return max(0, *e.MaxAttendees-e.CurrentAttendees), true
}

// FormattedPrice renders the ticket price in its currency. Rand prices
// are shown whole, as printed on tickets.
func (e Event) FormattedPrice() string {
	currency := strings.ToUpper(e.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	switch currency {
	case "ZAR":
		return fmt.Sprintf("R%d", int(e.Price))
	case "USD":
		return fmt.Sprintf("$%.2f", e.Price)
	case "EUR":
		return fmt.Sprintf("€%.2f", e.Price)
	default:
		return fmt.Sprintf("%s%.2f", e.Currency, e.Price)
	}
}

// FormattedDate renders StartDate as "Sat, 14 Mar", or the raw value if it
// does not parse.
func (e Event) FormattedDate() string {
	d, err := time.Parse(wireDate, e.StartDate)
	if err != nil {
		return e.StartDate
	}
	return d.Format("Mon, 02 Jan")
}

// FormattedTime renders StartTime as "6:30 PM", or the raw value if it does
// not parse.
func (e Event) FormattedTime() string {
	t, err := time.Parse(wireTime, e.StartTime)
	if err != nil {
		return e.StartTime
	}
	return t.Format("3:04 PM")
}

// FormattedDateTime renders "Sat, 14 Mar • 18:30", falling back to the raw
// "date • time" pair when either part does not parse.
func (e Event) FormattedDateTime() string {
	start, ok := e.Start(time.Local)
	if !ok {
		return e.StartDate + " • " + e.StartTime
	}
	return start.Format("Mon, 02 Jan • 15:04")
}

// Start combines StartDate and StartTime in loc.
func (e Event) Start(loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(wireDate+" "+wireTime, e.StartDate+" "+e.StartTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FullAddress joins address and city, or returns just the city.
func (e Event) FullAddress() string {
	if e.Address != "" {
		return e.Address + ", " + e.City
	}
	return e.City
}

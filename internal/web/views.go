package web

import (
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/domain/registration"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

var categoryOptions = []option{
	{Value: "all", Label: "All Categories"},
	{Value: "tech", Label: "Technology"},
	{Value: "workshop", Label: "Workshop"},
	{Value: "design", Label: "Design"},
	{Value: "networking", Label: "Networking"},
	{Value: "business", Label: "Business"},
}

var locationOptions = []option{
	{Value: "all", Label: "All Locations"},
	{Value: event.LocationInPerson, Label: "In-Person"},
	{Value: event.LocationOnline, Label: "Online"},
	{Value: event.LocationHybrid, Label: "Hybrid"},
}

func selectOptions(opts []option, current string) []option {
	if current == "" {
		current = "all"
	}

	out := make([]option, len(opts))
	for i, o := range opts {
		o.Selected = o.Value == current
		out[i] = o
	}
	return out
}

type listView struct {
	Title      string
	Filter     event.ListFilter
	Categories []option
	Locations  []option
	Cards      []card
	Total      int
	Error      string
}

func (v listView) CountLabel() string {
	if len(v.Cards) == 1 {
		return "1 event"
	}
	return strconv.Itoa(len(v.Cards)) + " events"
}

type badge struct {
	Class string
	Label string
}

type card struct {
	ID           string
	Title        string
	Description  string
	CategoryName string
	// BadgeStyle is built from a validated hex color only
	BadgeStyle   template.CSS
	Status       badge
	Date         string
	LocationType string
	Registered   int
	Max          int
	Price        string
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func categoryStyle(color string) template.CSS {
	if !hexColor.MatchString(color) {
		return template.CSS("background-color: #64748b15; color: #64748b; border-color: #64748b30")
	}
	// 15 and 30 are hex alpha suffixes
	return template.CSS("background-color: " + color + "15; color: " + color + "; border-color: " + color + "30")
}

func cardBadge(c event.Capacity) badge {
	status := c.Status()

	switch status {
	case event.StatusFewSpots:
		return badge{Class: string(status), Label: strconv.Itoa(c.SpotsLeft()) + " spots left"}
	case event.StatusFull:
		return badge{Class: string(status), Label: "Full"}
	case event.StatusWaitlist:
		return badge{Class: string(status), Label: "Waitlist"}
	default:
		return badge{Class: string(status), Label: "Available"}
	}
}

func detailBadge(c event.Capacity) badge {
	status := c.Status()

	switch status {
	case event.StatusFewSpots:
		return badge{Class: string(status), Label: "Only " + strconv.Itoa(c.SpotsLeft()) + " spots left!"}
	case event.StatusFull:
		return badge{Class: string(status), Label: "Event Full"}
	case event.StatusWaitlist:
		return badge{Class: string(status), Label: "Join Waitlist"}
	default:
		return badge{Class: string(status), Label: "Available"}
	}
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func shortDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("Jan 2, 2006")
}

func longDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("Monday, January 2, 2006 at 3:04 PM")
}

func newCard(e event.Event) card {
	return card{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		CategoryName: e.Category.Name,
		BadgeStyle:   categoryStyle(e.Category.Color),
		Status:       cardBadge(e.Capacity),
		Date:         shortDate(e.Date),
		LocationType: e.Location.Type,
		Registered:   e.Capacity.Registered,
		Max:          e.Capacity.Max,
		Price:        e.Pricing.Label(),
	}
}

type formView struct {
	State     registration.FormState
	Name      string
	Email     string
	GroupSize int
	Error     string
	// Waitlist is set when the event is full, registering then joins the waitlist.
	Waitlist       bool
	RegistrationID string
}

func (f formView) Failed() bool {
	return f.State == registration.StateFailed
}

func (f formView) Done() bool {
	return f.State.IsTerminal()
}

type detailView struct {
	Title   string
	Event   card
	Status  badge
	LongDay string
	Address string
	Price   string
	IsFull  bool
	Form    formView
}

func newDetailView(e event.Event) detailView {
	isFull := e.Capacity.Status() == event.StatusFull

	price := e.Pricing.Label()
	if !e.Pricing.IsFree() {
		price += " per person"
	}

	return detailView{
		Title:   e.Title,
		Event:   newCard(e),
		Status:  detailBadge(e.Capacity),
		LongDay: longDate(e.Date),
		Address: strings.TrimSpace(e.Location.Address),
		Price:   price,
		IsFull:  isFull,
		Form: formView{
			State:     registration.StateIdle,
			GroupSize: registration.DefaultGroupSize,
			Waitlist:  isFull,
		},
	}
}

type messageView struct {
	Title   string
	Message string
}

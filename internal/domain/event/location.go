package event

import (
	"net/url"
	"strings"
)

const (
	LocationInPerson = "in-person"
	LocationOnline   = "online"
	LocationHybrid   = "hybrid"

	// upstream calls in-person events "physical"
	upstreamLocationPhysical = "physical"

	filterAll = "all"
)

// ToUILocationType maps an upstream location type onto the UI vocabulary.
func ToUILocationType(t string) string {
	if t == upstreamLocationPhysical {
		return LocationInPerson
	}
	return t
}

// ToUpstreamLocationFilter maps a UI location filter onto the upstream vocabulary.
// ok is false when the filter must be left out of the upstream query.
func ToUpstreamLocationFilter(v string) (string, bool) {
	switch v {
	case "", filterAll:
		return "", false
	case LocationInPerson:
		return upstreamLocationPhysical, true
	default:
		return v, true
	}
}

func NormalizeInbound(e Event) Event {
	e.Location.Type = ToUILocationType(e.Location.Type)
	return e
}

func NormalizeInboundAll(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, NormalizeInbound(e))
	}
	return out
}

// Values builds the upstream query string for the filter.
func (f ListFilter) Values() url.Values {
	q := url.Values{}

	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}

	if f.Category != "" && f.Category != filterAll {
		q.Set("category", f.Category)
	}

	if loc, ok := ToUpstreamLocationFilter(f.Location); ok {
		q.Set("location", loc)
	}

	return q
}

package event

import (
	"encoding/json"
	"errors"
)

// Event mirrors the upstream event shape. Date is kept as the upstream
// ISO-8601 string so it is passed through untouched.
//
// An Event decoded from upstream keeps the original object next to the typed
// fields. Encoding it writes the original back with only location.type taken
// from the typed view, so keys this service does not model survive and
// missing keys stay missing.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Category    Category `json:"category"`
	Capacity    Capacity `json:"capacity"`
	Pricing     Pricing  `json:"pricing"`
	Location    Location `json:"location"`

	raw map[string]json.RawMessage
}

// eventFields drops the json methods so the typed view can be decoded and
// encoded with the struct tags.
type eventFields Event

func (e *Event) UnmarshalJSON(b []byte) error {
	var f eventFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = Event(f)
	e.raw = raw
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.raw == nil {
		return json.Marshal(eventFields(e))
	}

	out := make(map[string]json.RawMessage, len(e.raw))
	for k, v := range e.raw {
		out[k] = v
	}

	if loc, ok := out["location"]; ok {
		patched, err := withLocationType(loc, e.Location.Type)
		if err != nil {
			return nil, err
		}
		out["location"] = patched
	}

	return json.Marshal(out)
}

// withLocationType rewrites "type" inside a raw location object. Anything
// that is not an object with a type key is returned as is.
func withLocationType(loc json.RawMessage, typ string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(loc, &fields); err != nil || fields == nil {
		return loc, nil
	}
	if _, ok := fields["type"]; !ok {
		return loc, nil
	}

	t, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	fields["type"] = t

	return json.Marshal(fields)
}

// Category is opaque to this service, we only render it.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Location struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

// ListFilter holds the UI filters. Empty or "all" means the filter is not applied.
type ListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Location string `form:"location"`
}

// ListMeta carries the pagination bits of the upstream list envelope.
type ListMeta struct {
	Total   int
	LastKey string
}

var ErrNotFound = errors.New("event not found")

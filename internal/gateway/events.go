package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/upstream"
)

// EventsUpstream is the slice of the upstream client the event gateway needs.
type EventsUpstream interface {
	ListEvents(ctx context.Context, query url.Values) (upstream.ListEnvelope, error)
	GetEvent(ctx context.Context, id string) (upstream.GetEnvelope, error)
}

type Events struct {
	api EventsUpstream
}

func NewEvents(api EventsUpstream) *Events {
	return &Events{api: api}
}

// List fetches the filtered events and rewrites them into UI vocabulary.
func (g *Events) List(ctx context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error) {
	env, err := g.api.ListEvents(ctx, filter.Values())
	if err != nil {
		return nil, event.ListMeta{}, fmt.Errorf("list events: %w", err)
	}

	var events []event.Event
	if env.Events != nil {
		events = *env.Events
	}

	meta := event.ListMeta{Total: len(events)}
	if env.Total != nil {
		meta.Total = *env.Total
	}
	if env.LastKey != nil {
		meta.LastKey = *env.LastKey
	}

	return event.NormalizeInboundAll(events), meta, nil
}

// Get fetches a single event. Both an upstream 404 and an envelope without
// an event come back as event.ErrNotFound.
func (g *Events) Get(ctx context.Context, id string) (event.Event, error) {
	if strings.TrimSpace(id) == "" {
		return event.Event{}, event.ErrNotFound
	}

	env, err := g.api.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}

	if env.Event == nil {
		return event.Event{}, event.ErrNotFound
	}

	return event.NormalizeInbound(*env.Event), nil
}

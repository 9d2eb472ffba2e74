package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geocoder89/eventboard/internal/domain/registration"
)

type RegistrationsUpstream interface {
	Register(ctx context.Context, id string, in registration.Upstream) (json.RawMessage, error)
}

type Registrations struct {
	api RegistrationsUpstream
}

func NewRegistrations(api RegistrationsUpstream) *Registrations {
	return &Registrations{api: api}
}

// Register validates the request and forwards it. Validation failures never
// reach upstream. On success upstream's payload is returned as-is.
func (g *Registrations) Register(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error) {
	body, err := req.Validate()
	if err != nil {
		return nil, err
	}

	out, err := g.api.Register(ctx, eventID, body)
	if err != nil {
		return nil, fmt.Errorf("register for event %s: %w", eventID, err)
	}

	return out, nil
}

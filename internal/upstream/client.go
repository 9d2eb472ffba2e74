package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/domain/registration"
	"github.com/geocoder89/eventboard/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiKeyHeader = "x-api-key"

	// bodies larger than this are treated as malformed
	maxResponseBytes = 4 << 20

	tracerName = "github.com/geocoder89/eventboard/internal/upstream"
)

type Config struct {
	// BaseURL points at the events collection, e.g. https://host/prod/events.
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ListEnvelope is the upstream list response. Fields are pointers so a
// missing key is distinguishable from an empty one.
type ListEnvelope struct {
	Events  *[]event.Event `json:"events"`
	Total   *int           `json:"total"`
	LastKey *string        `json:"lastKey"`
}

type GetEnvelope struct {
	Event *event.Event `json:"event"`
}

type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	prom    *observability.Prom
	tracer  trace.Tracer
}

// New creates the upstream client. prom may be nil.
func New(cfg Config, prom *observability.Prom) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		hc: &http.Client{
			Timeout: timeout,
		},
		prom:   prom,
		tracer: otel.Tracer(tracerName),
	}
}

// ListEvents fetches GET {base}?{query}.
func (c *Client) ListEvents(ctx context.Context, query url.Values) (ListEnvelope, error) {
	endpoint := c.baseURL
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var env ListEnvelope
	err := c.do(ctx, "list_events", http.MethodGet, endpoint, nil, func(body []byte) error {
		return json.Unmarshal(body, &env)
	})
	if err != nil {
		return ListEnvelope{}, err
	}

	return env, nil
}

// GetEvent fetches GET {base}/{id}.
func (c *Client) GetEvent(ctx context.Context, id string) (GetEnvelope, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(id)

	var env GetEnvelope
	err := c.do(ctx, "get_event", http.MethodGet, endpoint, nil, func(body []byte) error {
		return json.Unmarshal(body, &env)
	})
	if err != nil {
		return GetEnvelope{}, err
	}

	return env, nil
}

// Register posts the attendee to POST {base}/{id}/register and returns
// the upstream success body untouched.
func (c *Client) Register(ctx context.Context, id string, in registration.Upstream) (json.RawMessage, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(id) + "/register"

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("register: marshal: %w", err)
	}

	var out json.RawMessage
	err = c.do(ctx, "register", http.MethodPost, endpoint, payload, func(body []byte) error {
		if !json.Valid(body) {
			return fmt.Errorf("invalid json body")
		}
		out = json.RawMessage(body)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte, decode func([]byte) error) error {
	ctx, span := c.tracer.Start(ctx, "upstream."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("upstream.op", op),
		),
	)
	defer span.End()

	err := c.prom.ObserveUpstream(op, func() error {
		return c.roundTrip(ctx, span, method, endpoint, payload, decode)
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, method, endpoint string, payload []byte, decode func([]byte) error) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: new request: %v", ErrNetwork, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if err := decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// errorMessage pulls "message" out of an upstream error body, best effort.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}

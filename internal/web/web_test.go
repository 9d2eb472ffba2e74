package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/domain/registration"
	"github.com/geocoder89/eventboard/internal/http/middlewares"
	"github.com/geocoder89/eventboard/internal/upstream"
	"github.com/geocoder89/eventboard/internal/web"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEvents struct {
	ListFn func(ctx context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error)
	GetFn  func(ctx context.Context, id string) (event.Event, error)
}

func (f *fakeEvents) List(ctx context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error) {
	if f.ListFn == nil {
		return nil, event.ListMeta{}, errors.New("ListFn not set")
	}
	return f.ListFn(ctx, filter)
}

func (f *fakeEvents) Get(ctx context.Context, id string) (event.Event, error) {
	if f.GetFn == nil {
		return event.Event{}, errors.New("GetFn not set")
	}
	return f.GetFn(ctx, id)
}

type fakeRegistrations struct {
	calls      int
	RegisterFn func(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error)
}

func (f *fakeRegistrations) Register(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error) {
	f.calls++
	if f.RegisterFn == nil {
		return nil, errors.New("RegisterFn not set")
	}
	return f.RegisterFn(ctx, eventID, req)
}

func newRouter(events web.EventsGateway, regs web.RegistrationGateway) *gin.Engine {
	h := web.NewHandler(events, regs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.GET("/", h.Index)
	r.GET("/fragments/events", h.EventsFragment)
	r.GET("/events/:id", h.EventDetail)
	r.POST("/events/:id/register", h.Register)
	r.NoRoute(web.NotFound)
	return r
}

func sampleEvent(id string, registered, max int) event.Event {
	return event.Event{
		ID:          id,
		Title:       "Go Meetup",
		Description: "Talks and pizza",
		Date:        "2026-03-14T18:00:00Z",
		Category:    event.Category{ID: "tech", Name: "Technology", Color: "#3b82f6"},
		Capacity:    event.Capacity{Max: max, Registered: registered},
		Pricing:     event.Pricing{Individual: 0},
		Location:    event.Location{Type: event.LocationInPerson, Address: "1 Main St"},
	}
}

func TestIndex(t *testing.T) {
	var got event.ListFilter
	events := &fakeEvents{
		ListFn: func(_ context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error) {
			got = filter
			return []event.Event{sampleEvent("evt_1", 95, 100)}, event.ListMeta{Total: 1}, nil
		},
	}

	r := newRouter(events, &fakeRegistrations{})

	req := httptest.NewRequest(http.MethodGet, "/?search=go&category=tech&location=in-person", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if got.Search != "go" || got.Category != "tech" || got.Location != "in-person" {
		t.Fatalf("unexpected filter: %+v", got)
	}

	body := w.Body.String()
	for _, want := range []string{"Go Meetup", "5 spots left", "1 event", "Free", "95 / 100 registered", `href="/events/evt_1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}

	// the selected option survives the round trip
	if !strings.Contains(body, `value="tech" selected`) {
		t.Errorf("expected tech category to be selected")
	}
}

func TestEventsFragment(t *testing.T) {
	events := &fakeEvents{
		ListFn: func(_ context.Context, _ event.ListFilter) ([]event.Event, event.ListMeta, error) {
			return []event.Event{sampleEvent("evt_1", 0, 10), sampleEvent("evt_2", 10, 10)}, event.ListMeta{Total: 2}, nil
		},
	}

	r := newRouter(events, &fakeRegistrations{})

	req := httptest.NewRequest(http.MethodGet, "/fragments/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if got := w.Header().Get("X-Event-Count"); got != "2" {
		t.Fatalf("expected X-Event-Count 2, got %q", got)
	}

	body := w.Body.String()
	if strings.Contains(body, "<html") {
		t.Fatalf("fragment should not render the page layout")
	}
	if !strings.Contains(body, "Available") || !strings.Contains(body, "Full") {
		t.Fatalf("expected both badges in fragment, got %s", body)
	}
}

func TestEventsFragment_Empty(t *testing.T) {
	events := &fakeEvents{
		ListFn: func(_ context.Context, _ event.ListFilter) ([]event.Event, event.ListMeta, error) {
			return []event.Event{}, event.ListMeta{}, nil
		},
	}

	r := newRouter(events, &fakeRegistrations{})

	req := httptest.NewRequest(http.MethodGet, "/fragments/events?search=nothing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No events found") {
		t.Fatalf("expected empty notice, got %s", w.Body.String())
	}
}

func TestEventsFragment_UpstreamError(t *testing.T) {
	events := &fakeEvents{
		ListFn: func(_ context.Context, _ event.ListFilter) ([]event.Event, event.ListMeta, error) {
			return nil, event.ListMeta{}, upstream.ErrNetwork
		},
	}

	r := newRouter(events, &fakeRegistrations{})

	req := httptest.NewRequest(http.MethodGet, "/fragments/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "couldn&#39;t load events") {
		t.Fatalf("expected error notice, got %s", w.Body.String())
	}
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		name       string
		getFn      func(ctx context.Context, id string) (event.Event, error)
		wantStatus int
		wantBody   []string
	}{
		{
			name: "few spots",
			getFn: func(_ context.Context, id string) (event.Event, error) {
				return sampleEvent(id, 18, 20), nil
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"Only 2 spots left!", "Register Now", "1 Main St"},
		},
		{
			name: "full shows waitlist",
			getFn: func(_ context.Context, id string) (event.Event, error) {
				return sampleEvent(id, 10, 10), nil
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{"Event Full", "Join Waitlist", "Joining Waitlist..."},
		},
		{
			name: "not found",
			getFn: func(_ context.Context, _ string) (event.Event, error) {
				return event.Event{}, event.ErrNotFound
			},
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"Event not found"},
		},
		{
			name: "upstream down",
			getFn: func(_ context.Context, _ string) (event.Event, error) {
				return event.Event{}, upstream.ErrNetwork
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   []string{"Something went wrong"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&fakeEvents{GetFn: tt.getFn}, &fakeRegistrations{})

			req := httptest.NewRequest(http.MethodGet, "/events/evt_1", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(w.Body.String(), want) {
					t.Errorf("expected body to contain %q", want)
				}
			}
		})
	}
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	events := &fakeEvents{
		GetFn: func(_ context.Context, id string) (event.Event, error) {
			return sampleEvent(id, 1, 10), nil
		},
	}

	var got registration.Request
	regs := &fakeRegistrations{
		RegisterFn: func(_ context.Context, eventID string, req registration.Request) (json.RawMessage, error) {
			if eventID != "evt_1" {
				t.Errorf("expected evt_1, got %q", eventID)
			}
			got = req
			return json.RawMessage(`{"success":true,"registrationId":"reg_42","event":{"id":"evt_1"},"attendee":{"email":"a@b.c","name":"Ann"}}`), nil
		},
	}

	r := newRouter(events, regs)

	w := postForm(r, "/events/evt_1/register", url.Values{
		"attendeeName":  {"Ann"},
		"attendeeEmail": {"a@b.c"},
		"groupSize":     {"3"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if got.GroupSize == nil || *got.GroupSize != 3 {
		t.Fatalf("expected group size 3, got %v", got.GroupSize)
	}

	body := w.Body.String()
	if !strings.Contains(body, "registered!") || !strings.Contains(body, "reg_42") {
		t.Fatalf("expected confirmation, got %s", body)
	}
	if strings.Contains(body, `id="registration-form"`) {
		t.Fatalf("form should be replaced by the confirmation")
	}
}

func TestRegister_FullEventJoinsWaitlist(t *testing.T) {
	events := &fakeEvents{
		GetFn: func(_ context.Context, id string) (event.Event, error) {
			return sampleEvent(id, 20, 20), nil
		},
	}
	regs := &fakeRegistrations{
		RegisterFn: func(_ context.Context, _ string, _ registration.Request) (json.RawMessage, error) {
			return json.RawMessage(`{"success":true,"registrationId":"reg_1"}`), nil
		},
	}

	r := newRouter(events, regs)

	w := postForm(r, "/events/evt_1/register", url.Values{
		"attendeeName":  {"Ann"},
		"attendeeEmail": {"a@b.c"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "on the waitlist!") {
		t.Fatalf("expected waitlist confirmation, got %s", w.Body.String())
	}
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		registerFn func(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error)
		wantStatus int
		wantBody   string
		wantCalls  int
	}{
		{
			name: "missing attendee",
			form: url.Values{"attendeeName": {"Ann"}},
			registerFn: func(_ context.Context, _ string, req registration.Request) (json.RawMessage, error) {
				_, err := req.Validate()
				return nil, err
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "attendeeEmail and attendeeName are required",
			wantCalls:  1,
		},
		{
			name:       "group size below one",
			form:       url.Values{"attendeeName": {"Ann"}, "attendeeEmail": {"a@b.c"}, "groupSize": {"0"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Group size must be a whole number of at least 1.",
			wantCalls:  0,
		},
		{
			name:       "missing attendee reported before group size",
			form:       url.Values{"attendeeName": {"Ann"}, "groupSize": {"0"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   "attendeeEmail and attendeeName are required",
			wantCalls:  0,
		},
		{
			name: "upstream status",
			form: url.Values{"attendeeName": {"Ann"}, "attendeeEmail": {"a@b.c"}},
			registerFn: func(_ context.Context, _ string, _ registration.Request) (json.RawMessage, error) {
				return nil, &upstream.StatusError{StatusCode: http.StatusConflict, Message: "Already registered"}
			},
			wantStatus: http.StatusConflict,
			wantBody:   "Already registered",
			wantCalls:  1,
		},
		{
			name: "upstream says no",
			form: url.Values{"attendeeName": {"Ann"}, "attendeeEmail": {"a@b.c"}},
			registerFn: func(_ context.Context, _ string, _ registration.Request) (json.RawMessage, error) {
				return json.RawMessage(`{"success":false}`), nil
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Registration failed",
			wantCalls:  1,
		},
		{
			name: "network",
			form: url.Values{"attendeeName": {"Ann"}, "attendeeEmail": {"a@b.c"}},
			registerFn: func(_ context.Context, _ string, _ registration.Request) (json.RawMessage, error) {
				return nil, upstream.ErrNetwork
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Please try again later.",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{
				GetFn: func(_ context.Context, id string) (event.Event, error) {
					return sampleEvent(id, 1, 10), nil
				},
			}
			regs := &fakeRegistrations{RegisterFn: tt.registerFn}

			r := newRouter(events, regs)
			w := postForm(r, "/events/evt_1/register", tt.form)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if regs.calls != tt.wantCalls {
				t.Fatalf("expected %d gateway calls, got %d", tt.wantCalls, regs.calls)
			}

			body := w.Body.String()
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("expected body to contain %q, got %s", tt.wantBody, body)
			}
			// the form comes back with what was typed
			if !strings.Contains(body, `id="registration-form"`) || !strings.Contains(body, `value="Ann"`) {
				t.Errorf("expected form re-rendered with previous values")
			}
		})
	}
}

func TestNotFoundPage(t *testing.T) {
	r := newRouter(&fakeEvents{}, &fakeRegistrations{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Page not found") {
		t.Fatalf("expected not found page, got %s", w.Body.String())
	}
}

func TestRegister_LargeGroupIsForwarded(t *testing.T) {
	events := &fakeEvents{
		GetFn: func(_ context.Context, id string) (event.Event, error) {
			return sampleEvent(id, 1, 100), nil
		},
	}

	var got registration.Request
	regs := &fakeRegistrations{
		RegisterFn: func(_ context.Context, _ string, req registration.Request) (json.RawMessage, error) {
			got = req
			return json.RawMessage(`{"success":true,"registrationId":"reg_51"}`), nil
		},
	}

	r := newRouter(events, regs)
	w := postForm(r, "/events/evt_1/register", url.Values{
		"attendeeName":  {"Ann"},
		"attendeeEmail": {"a@b.c"},
		"groupSize":     {"51"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if regs.calls != 1 || got.GroupSize == nil || *got.GroupSize != 51 {
		t.Fatalf("group size not forwarded: calls=%d req=%+v", regs.calls, got)
	}
}

func TestRegister_RateLimitedRendersForm(t *testing.T) {
	events := &fakeEvents{
		GetFn: func(_ context.Context, id string) (event.Event, error) {
			return sampleEvent(id, 1, 10), nil
		},
	}
	regs := &fakeRegistrations{
		RegisterFn: func(_ context.Context, _ string, _ registration.Request) (json.RawMessage, error) {
			return json.RawMessage(`{"success":true}`), nil
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := web.NewHandler(events, regs, log)

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	limit := middlewares.RateLimitWith(middlewares.NewMemoryLimiter(1, time.Minute), middlewares.KeyByIP, nil, log, h.RegisterRateLimited)
	r.POST("/events/:id/register", limit, h.Register)

	form := url.Values{"attendeeName": {"Ann"}, "attendeeEmail": {"a@b.c"}}

	if w := postForm(r, "/events/evt_1/register", form); w.Code != http.StatusOK {
		t.Fatalf("first post: expected 200, got %d", w.Code)
	}

	w := postForm(r, "/events/evt_1/register", form)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second post: expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	body := w.Body.String()
	if !strings.Contains(body, "Too many attempts") {
		t.Fatalf("expected throttle message, got %s", body)
	}
	if !strings.Contains(body, `id="registration-form"`) || !strings.Contains(body, `value="Ann"`) {
		t.Fatalf("expected form re-rendered with previous values")
	}
	if strings.HasPrefix(strings.TrimSpace(body), "{") {
		t.Fatalf("expected HTML, got JSON")
	}
	if regs.calls != 1 {
		t.Fatalf("throttled post must not reach the gateway, calls=%d", regs.calls)
	}
}

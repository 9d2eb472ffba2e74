// Package web renders the browser pages on top of the same gateways the JSON API uses.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/domain/registration"
	"github.com/geocoder89/eventboard/internal/upstream"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const headerEventCount = "X-Event-Count"

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}

// Static returns the embedded assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type EventsGateway interface {
	List(ctx context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error)
	Get(ctx context.Context, id string) (event.Event, error)
}

type RegistrationGateway interface {
	Register(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error)
}

type Handler struct {
	events        EventsGateway
	registrations RegistrationGateway
	log           *slog.Logger
}

func NewHandler(events EventsGateway, registrations RegistrationGateway, log *slog.Logger) *Handler {
	return &Handler{events: events, registrations: registrations, log: log}
}

// Index renders the listing page with the filters taken from the query string.
func (h *Handler) Index(ctx *gin.Context) {
	view, status := h.list(ctx)
	ctx.HTML(status, "index", view)
}

// EventsFragment renders only the card grid, the filter script swaps it in.
func (h *Handler) EventsFragment(ctx *gin.Context) {
	view, status := h.list(ctx)
	ctx.Header(headerEventCount, strconv.Itoa(len(view.Cards)))
	ctx.HTML(status, "cards", view)
}

func (h *Handler) list(ctx *gin.Context) (listView, int) {
	var filter event.ListFilter
	bindErr := ctx.ShouldBindQuery(&filter)

	view := listView{
		Title:      "Events",
		Filter:     filter,
		Categories: selectOptions(categoryOptions, filter.Category),
		Locations:  selectOptions(locationOptions, filter.Location),
	}

	if bindErr != nil {
		h.log.WarnContext(ctx.Request.Context(), "bad filter query", "err", bindErr)
		view.Error = "Those filters could not be read. Please adjust them and try again."
		return view, http.StatusBadRequest
	}

	events, meta, err := h.events.List(ctx.Request.Context(), filter)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "render events failed", "err", err)
		view.Error = "We couldn't load events right now. Please try again later."
		return view, http.StatusInternalServerError
	}

	view.Total = meta.Total
	view.Cards = make([]card, 0, len(events))
	for _, e := range events {
		view.Cards = append(view.Cards, newCard(e))
	}

	return view, http.StatusOK
}

func (h *Handler) EventDetail(ctx *gin.Context) {
	e, ok := h.loadEvent(ctx)
	if !ok {
		return
	}

	ctx.HTML(http.StatusOK, "event", newDetailView(e))
}

// Register handles the form post. Success replaces the form with the
// confirmation, failure shows the form again with the error and the values.
func (h *Handler) Register(ctx *gin.Context) {
	e, ok := h.loadEvent(ctx)
	if !ok {
		return
	}

	view := newDetailView(e)

	state, _ := view.Form.State.Submit()

	var req registration.Request
	if err := ctx.ShouldBind(&req); err != nil {
		msg := "Group size must be a whole number of at least 1."
		if req.MissingAttendee() {
			msg = registration.ErrMissingAttendee.Error()
		}
		view.Form = failedForm(view.Form, req, state.Resolve(err), msg)
		ctx.HTML(http.StatusBadRequest, "event", view)
		return
	}

	out, err := h.registrations.Register(ctx.Request.Context(), e.ID, req)

	var resp registration.Response
	if err == nil {
		if jsonErr := json.Unmarshal(out, &resp); jsonErr != nil || !resp.Success {
			err = errRegistrationRejected
		}
	}

	state = state.Resolve(err)

	if state == registration.StateFailed {
		status, msg := h.registrationFailure(ctx, e.ID, err)
		view.Form = failedForm(view.Form, req, state, msg)
		ctx.HTML(status, "event", view)
		return
	}

	view.Form.State = state
	view.Form.Name = req.AttendeeName
	view.Form.Email = req.AttendeeEmail
	view.Form.RegistrationID = resp.RegistrationID
	view.Form.Waitlist = e.Capacity.Status().ForRegistration() == event.StatusWaitlist

	ctx.HTML(http.StatusOK, "event", view)
}

// RegisterRateLimited answers a throttled form post with the form and its
// values instead of a bare 429.
func (h *Handler) RegisterRateLimited(ctx *gin.Context, retryAfter time.Duration) {
	e, ok := h.loadEvent(ctx)
	if !ok {
		return
	}

	var req registration.Request
	_ = ctx.ShouldBind(&req) // values are only echoed back, a bad groupSize just stays at the default

	view := newDetailView(e)
	view.Form = failedForm(view.Form, req, registration.StateFailed, retryMessage(retryAfter))

	ctx.HTML(http.StatusTooManyRequests, "event", view)
}

func retryMessage(retryAfter time.Duration) string {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs <= 1 {
		return "Too many attempts. Please try again in a moment."
	}
	return "Too many attempts. Please try again in " + strconv.Itoa(secs) + " seconds."
}

// upstream answered 2xx but did not report success
var errRegistrationRejected = errors.New("registration not confirmed by upstream")

func failedForm(f formView, req registration.Request, state registration.FormState, msg string) formView {
	f.State = state
	f.Name = req.AttendeeName
	f.Email = req.AttendeeEmail
	if req.GroupSize != nil {
		f.GroupSize = *req.GroupSize
	}
	f.Error = msg
	return f
}

func (h *Handler) registrationFailure(ctx *gin.Context, eventID string, err error) (int, string) {
	var se *upstream.StatusError

	switch {
	case errors.Is(err, registration.ErrMissingAttendee), errors.Is(err, registration.ErrInvalidGroupSize):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errRegistrationRejected):
		return http.StatusBadGateway, "Registration failed"
	case errors.As(err, &se):
		return se.StatusCode, se.StatusMessage()
	default:
		h.log.ErrorContext(ctx.Request.Context(), "register from page failed", "event_id", eventID, "err", err)
		return http.StatusInternalServerError, "Please try again later."
	}
}

func (h *Handler) loadEvent(ctx *gin.Context) (event.Event, bool) {
	id := ctx.Param("id")

	e, err := h.events.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			ctx.HTML(http.StatusNotFound, "message", messageView{
				Title:   "Event not found",
				Message: "The event you are looking for does not exist or is no longer listed.",
			})
			return event.Event{}, false
		}

		h.log.ErrorContext(ctx.Request.Context(), "render event failed", "event_id", id, "err", err)
		ctx.HTML(http.StatusInternalServerError, "message", messageView{
			Title:   "Something went wrong",
			Message: "We couldn't load this event right now. Please try again later.",
		})
		return event.Event{}, false
	}

	return e, true
}

// NotFound renders the 404 page for unknown routes outside /api.
func NotFound(ctx *gin.Context) {
	ctx.HTML(http.StatusNotFound, "message", messageView{
		Title:   "Page not found",
		Message: "There is nothing here.",
	})
}

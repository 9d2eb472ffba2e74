package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/eventboard/internal/domain/event"
	"github.com/geocoder89/eventboard/internal/upstream"
	"github.com/gin-gonic/gin"
)

const (
	headerTotalCount = "X-Total-Count"
	headerLastKey    = "X-Last-Key"
)

type EventsGateway interface {
	List(ctx context.Context, filter event.ListFilter) ([]event.Event, event.ListMeta, error)
	Get(ctx context.Context, id string) (event.Event, error)
}

type EventsHandler struct {
	gw  EventsGateway
	log *slog.Logger
}

func NewEventsHandler(gw EventsGateway, log *slog.Logger) *EventsHandler {
	return &EventsHandler{gw: gw, log: log}
}

// ListEvents answers with the bare event array. Pagination data from upstream
// rides along in headers so the body contract stays an array.
func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var filter event.ListFilter

	if err := ctx.ShouldBindQuery(&filter); err != nil {
		RespondBadRequest(ctx, "Invalid query", gin.H{"reason": err.Error()})
		return
	}

	events, meta, err := h.gw.List(ctx.Request.Context(), filter)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list events failed", "err", err)
		RespondInternal(ctx, "Failed to fetch events", upstream.Describe(err))
		return
	}

	ctx.Header(headerTotalCount, strconv.Itoa(meta.Total))
	if meta.LastKey != "" {
		ctx.Header(headerLastKey, meta.LastKey)
	}

	RespondJSONWithETag(ctx, http.StatusOK, events)
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id := ctx.Param("id")

	e, err := h.gw.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "get event failed", "event_id", id, "err", err)
		RespondInternal(ctx, "Failed to fetch event", upstream.Describe(err))
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e)
}

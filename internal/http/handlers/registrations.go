package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/eventboard/internal/domain/registration"
	"github.com/geocoder89/eventboard/internal/upstream"
	"github.com/gin-gonic/gin"
)

type RegistrationGateway interface {
	Register(ctx context.Context, eventID string, req registration.Request) (json.RawMessage, error)
}

type RegistrationHandler struct {
	gw  RegistrationGateway
	log *slog.Logger
}

func NewRegistrationHandler(gw RegistrationGateway, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{gw: gw, log: log}
}

// Register forwards the attendee upstream. Upstream's verdict is relayed:
// its payload on success, its status code and message on failure.
func (h *RegistrationHandler) Register(ctx *gin.Context) {
	eventID := ctx.Param("id")

	var req registration.Request

	attendeeFirst := func() error {
		if req.MissingAttendee() {
			return registration.ErrMissingAttendee
		}
		return nil
	}

	if !BindJSON(ctx, &req, attendeeFirst) {
		return
	}

	out, err := h.gw.Register(ctx.Request.Context(), eventID, req)
	if err != nil {
		var se *upstream.StatusError

		switch {
		case errors.Is(err, registration.ErrMissingAttendee), errors.Is(err, registration.ErrInvalidGroupSize):
			RespondBadRequest(ctx, err.Error(), nil)
		case errors.As(err, &se):
			h.log.WarnContext(ctx.Request.Context(), "upstream rejected registration",
				"event_id", eventID, "status", se.StatusCode, "err", err)
			RespondError(ctx, se.StatusCode, "Registration failed", se.StatusMessage(), nil)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "register failed", "event_id", eventID, "err", err)
			RespondInternal(ctx, "Failed to register", upstream.Describe(err))
		}
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"impact/internal/checkin/models"
	"impact/internal/checkin/service"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/httputil"
	"impact/pkg/requestcontext"
)

// Service defines the interface for check-in operations.
type Service interface {
	Perform(ctx context.Context, req service.Request) (*models.CheckIn, error)
}

// Handler wires the door endpoint to the check-in engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a check-in handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the door endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/logging/checkin", h.HandleCheckIn)
}

// HandleCheckIn handles POST /logging/checkin requests. The response is the
// written audit record for every decided outcome, granted or denied; only
// throttling and unknown cards produce an error status.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Perform(ctx, service.Request{
		ScannedCardID:      req.ScannedCardID,
		ValidatorCardID:    req.ValidatorCardID,
		ExternalProviderID: req.ParsedProviderID(),
		Hall:               req.Hall,
	})
	if err != nil {
		// Throttling is routine door traffic, not worth an error log.
		if !dErrors.HasCode(err, dErrors.CodeThrottled) && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "check-in failed",
				"request_id", requestID,
				"scanned_card_id", req.ScannedCardID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

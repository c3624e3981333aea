package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"impact/internal/stats/models"
	"impact/pkg/platform/httputil"
	"impact/pkg/requestcontext"
)

// Service defines the interface for reporting operations.
type Service interface {
	InstructorCheckins(ctx context.Context, from, to time.Time) ([]models.ValidatorCount, error)
	InstructorCheckinsDetailed(ctx context.Context, validatorCardID string, from, to time.Time, page, pageSize int) (*models.DetailedPage, error)
}

// Handler wires reporting endpoints to the statistics service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a statistics handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts reporting endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/statistics/instructors_checkins", h.HandleInstructorCheckins)
	r.Post("/statistics/instructor_checkins/detailed", h.HandleDetailed)
}

// HandleInstructorCheckins handles POST /statistics/instructors_checkins.
func (h *Handler) HandleInstructorCheckins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InstructorCheckinsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	counts, err := h.service.InstructorCheckins(ctx, req.DateFrom, req.DateTo)
	if err != nil {
		h.logger.ErrorContext(ctx, "instructor check-in aggregation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

// HandleDetailed handles POST /statistics/instructor_checkins/detailed.
func (h *Handler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DetailedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	page, err := h.service.InstructorCheckinsDetailed(ctx, req.ValidatorCardID, req.DateFrom, req.DateTo, req.Page, req.PageSize)
	if err != nil {
		h.logger.ErrorContext(ctx, "detailed check-in listing failed",
			"request_id", requestID,
			"validated_by_card_id", req.ValidatorCardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	passmodels "impact/internal/passes/models"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/httputil"
	"impact/pkg/requestcontext"
)

// Service defines the interface for pass operations.
type Service interface {
	Purchase(ctx context.Context, memberCardID string, passTypeID uuid.UUID) (*passmodels.MemberPass, error)
	ActiveFor(ctx context.Context, memberCardID string) (*passmodels.MemberPass, error)
}

// Handler wires pass endpoints to the pass service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a pass handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts pass endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/member_pass", h.HandlePurchase)
	r.Get("/member_pass/active/{member_card_id}", h.HandleActive)
}

// HandlePurchase handles POST /member_pass requests.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	pass, err := h.service.Purchase(ctx, req.MemberCardID, req.ParsedPassTypeID())
	if err != nil {
		h.logger.ErrorContext(ctx, "pass purchase failed",
			"request_id", requestID,
			"member_card_id", req.MemberCardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pass)
}

// HandleActive handles GET /member_pass/active/{member_card_id} requests.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	memberCardID := strings.TrimSpace(chi.URLParam(r, "member_card_id"))
	if memberCardID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "member_card_id is required"))
		return
	}

	pass, err := h.service.ActiveFor(ctx, memberCardID)
	if err != nil {
		// Holding no active pass is a normal empty result, not a client
		// mistake.
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, nil)
			return
		}
		h.logger.ErrorContext(ctx, "active pass lookup failed",
			"request_id", requestID,
			"member_card_id", memberCardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pass)
}

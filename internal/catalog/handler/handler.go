package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"impact/internal/catalog/models"
	"impact/internal/catalog/service"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/httputil"
	"impact/pkg/requestcontext"
)

// Service defines the interface for catalog operations.
type Service interface {
	CreateProvider(ctx context.Context, in service.CreateProviderInput) (*models.ExternalProvider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*models.ExternalProvider, error)
	ListProviders(ctx context.Context, includeDeleted bool) ([]*models.ExternalProvider, error)
	UpdateProvider(ctx context.Context, id uuid.UUID, update models.ProviderUpdate) (*models.ExternalProvider, error)
	DeleteProvider(ctx context.Context, id uuid.UUID) error

	CreatePassType(ctx context.Context, in service.CreatePassTypeInput) (*models.PassType, error)
	GetPassType(ctx context.Context, id uuid.UUID) (*models.PassType, error)
	ListPassTypes(ctx context.Context, includeDeleted bool) ([]*models.PassType, error)
	UpdatePassType(ctx context.Context, id uuid.UUID, update models.PassTypeUpdate) (*models.PassType, error)
	DeletePassType(ctx context.Context, id uuid.UUID) error
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/external_providers", func(r chi.Router) {
		r.Post("/", h.HandleCreateProvider)
		r.Get("/", h.HandleListProviders)
		r.Get("/{id}", h.HandleGetProvider)
		r.Patch("/{id}", h.HandleUpdateProvider)
		r.Delete("/{id}", h.HandleDeleteProvider)
	})
	r.Route("/pass_types", func(r chi.Router) {
		r.Post("/", h.HandleCreatePassType)
		r.Get("/", h.HandleListPassTypes)
		r.Get("/{id}", h.HandleGetPassType)
		r.Patch("/{id}", h.HandleUpdatePassType)
		r.Delete("/{id}", h.HandleDeletePassType)
	})
}

func (h *Handler) HandleCreateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateProviderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	provider, err := h.service.CreateProvider(ctx, req.ToInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, provider)
}

func (h *Handler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providers, err := h.service.ListProviders(ctx, r.URL.Query().Get("include_deleted") == "true")
	if err != nil {
		h.writeServiceError(ctx, w, "list providers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, providers)
}

func (h *Handler) HandleGetProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	provider, err := h.service.GetProvider(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

func (h *Handler) HandleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateProviderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	provider, err := h.service.UpdateProvider(ctx, id, req.ToUpdate())
	if err != nil {
		h.writeServiceError(ctx, w, "update provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

func (h *Handler) HandleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProvider(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "delete provider", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCreatePassType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreatePassTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	passType, err := h.service.CreatePassType(ctx, req.ToInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create pass type", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, passType)
}

func (h *Handler) HandleListPassTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	types, err := h.service.ListPassTypes(ctx, r.URL.Query().Get("include_deleted") == "true")
	if err != nil {
		h.writeServiceError(ctx, w, "list pass types", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

func (h *Handler) HandleGetPassType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	passType, err := h.service.GetPassType(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, passType)
}

func (h *Handler) HandleUpdatePassType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePassTypeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	passType, err := h.service.UpdatePassType(ctx, id, req.ToUpdate())
	if err != nil {
		h.writeServiceError(ctx, w, "update pass type", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, passType)
}

func (h *Handler) HandleDeletePassType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePassType(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "delete pass type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

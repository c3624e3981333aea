package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"impact/internal/identity/models"
	"impact/internal/identity/service"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/httputil"
	"impact/pkg/requestcontext"
)

// Service defines the interface for member operations.
type Service interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Signup(ctx context.Context, in service.SignupInput) (*models.Member, error)
	Confirm(ctx context.Context, token string) (*models.Member, error)
	AddMember(ctx context.Context, in service.AddMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, cardID string) (*models.Member, error)
}

// Handler wires member endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the unauthenticated member endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/login/username", h.HandleLogin)
	r.Post("/members/signup", h.HandleSignup)
	r.Get("/members/confirm/{token}", h.HandleConfirm)
}

// RegisterProtected mounts the endpoints that require a bearer token.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/members/add", h.HandleAddMember)
	r.Get("/members/{card_id}", h.HandleGetMember)
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	Member      *models.Member `json:"member"`
}

// HandleLogin handles POST /login/username requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		Member:      result.Member,
	})
}

// HandleSignup handles POST /members/signup requests.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.Signup(ctx, service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Surname:  req.Surname,
		Username: req.Username,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "signup failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, member)
}

// HandleConfirm handles GET /members/confirm/{token} requests.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "confirmation token is required"))
		return
	}

	member, err := h.service.Confirm(ctx, token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "confirmation failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, member)
}

// HandleAddMember handles POST /members/add requests. Only roots and admins
// may create accounts.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !callerCanManageMembers(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only administrators can add members"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	member, err := h.service.AddMember(ctx, service.AddMemberInput{
		Name:             req.Name,
		Surname:          req.Surname,
		Email:            req.Email,
		Username:         req.Username,
		PhoneNumber:      req.PhoneNumber,
		DateOfBirth:      req.ParsedDateOfBirth(),
		Role:             req.ParsedRole(),
		SendWelcomeEmail: req.SendWelcomeEmail,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "add member failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, member)
}

// HandleGetMember handles GET /members/{card_id} requests.
func (h *Handler) HandleGetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cardID := strings.TrimSpace(chi.URLParam(r, "card_id"))
	if cardID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "card_id is required"))
		return
	}

	member, err := h.service.GetMember(ctx, cardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, member)
}

func callerCanManageMembers(ctx context.Context) bool {
	role, err := models.ParseRole(requestcontext.Role(ctx))
	if err != nil {
		return false
	}
	return role.CanManageMembers()
}

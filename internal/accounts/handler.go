package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrodash/agrodash/internal/identity"
	"github.com/agrodash/agrodash/internal/platform/httpx"
	"github.com/agrodash/agrodash/internal/shared"
)

// Response messages.
const (
	MsgCreated      = "User record created successfully"
	MsgExists       = "User record already exists"
	MsgRetrieved    = "User record retrieved"
	MsgCreateFailed = "Failed to create user record"
	MsgLoadFailed   = "Failed to load user record"
	MsgNotFound     = "User record not found"
)

// SignupRecorder receives the outcome label of every signup.
type SignupRecorder interface {
	ObserveSignup(outcome string)
}

// Handler wires HTTP endpoints for account bootstrap.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     func(http.Handler) http.Handler
	recorder SignupRecorder
}

// NewHandler constructs a Handler. gate must attach an identity.Identity to
// the request context.
func NewHandler(logger *slog.Logger, service *Service, gate func(http.Handler) http.Handler, recorder SignupRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, recorder: recorder}
}

// MountAuthRoutes registers routes under /api/auth.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.With(h.gate).Post("/signup", h.signup)
}

// MountUserRoutes registers routes under /api/user.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.With(h.gate).Get("/me", h.me)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		h.observe("unauthenticated")
		httpx.RespondError(w, shared.ErrUnauthenticated, "")
		return
	}
	logger := h.logger.With(slog.String("user_id", id.UserID))

	result, err := h.service.Bootstrap(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrWriteConflict) {
			h.observe("write_conflict")
			logger.Error("signup lost concurrent create", slog.Any("error", err))
		} else {
			h.observe("error")
			logger.Error("signup", slog.Any("error", err))
		}
		httpx.Error(w, http.StatusInternalServerError, MsgCreateFailed)
		return
	}

	switch result.Outcome {
	case OutcomeExists:
		h.observe("exists")
		httpx.Message(w, http.StatusConflict, MsgExists, result.User)
	default:
		h.observe("created")
		httpx.Message(w, http.StatusCreated, MsgCreated, result.Summary())
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated, "")
		return
	}
	account, err := h.service.Account(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, MsgNotFound)
			return
		}
		h.logger.Error("load account", slog.String("user_id", id.UserID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, MsgLoadFailed)
		return
	}
	httpx.Message(w, http.StatusOK, MsgRetrieved, account)
}

func (h *Handler) observe(outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveSignup(outcome)
	}
}

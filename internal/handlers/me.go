package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/torunhut/api/internal/platform/auth"
	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/services"
)

// MeHandlers exposes the signed-in shopper's account endpoints.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

// NewMeHandlers constructs a new MeHandlers instance.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{
		authn: authn,
		users: users,
	}
}

// Routes registers the /me endpoints.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.getProfile)
	r.Post("/sync", h.syncProfile)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(ctx, identity.UID)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

type syncProfileRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// syncProfile upserts the user document on sign-in. The email always comes
// from the verified token, never from the body.
func (h *MeHandlers) syncProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req syncProfileRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.SyncUser(ctx, services.SyncUserCommand{
		UserID:      identity.UID,
		Email:       strings.TrimSpace(identity.Email),
		DisplayName: sanitizeText(req.DisplayName),
		PhotoURL:    strings.TrimSpace(req.PhotoURL),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

func (h *MeHandlers) requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("user_unavailable", "users temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}

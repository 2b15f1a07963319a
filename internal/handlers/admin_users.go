package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/torunhut/api/internal/platform/auth"
	"github.com/torunhut/api/internal/platform/httpx"
	"github.com/torunhut/api/internal/services"
)

// AdminUserHandlers exposes the back-office user and settings endpoints.
// Listing users is open to both staff roles; role changes and settings
// updates are admin only.
type AdminUserHandlers struct {
	authn    *auth.Authenticator
	users    services.UserService
	settings services.SettingsService
}

// NewAdminUserHandlers constructs a new AdminUserHandlers instance.
func NewAdminUserHandlers(authn *auth.Authenticator, users services.UserService, settings services.SettingsService) *AdminUserHandlers {
	return &AdminUserHandlers{
		authn:    authn,
		users:    users,
		settings: settings,
	}
}

// Routes registers the /admin user and settings endpoints.
func (h *AdminUserHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireFirebaseAuth(auth.RoleSubAdmin, auth.RoleAdmin))
		}
		g.Get("/users", h.listUsers)
		g.Get("/settings", h.getSettings)
	})
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
		}
		g.Patch("/users/{userID}/role", h.changeRole)
		g.Patch("/settings", h.updateSettings)
	})
}

type userListResponse struct {
	Items         []userPayload `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

func (h *AdminUserHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pager, err := parseListPagination(r, 50, 200)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.users.ListUsers(ctx, pager)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	resp := userListResponse{
		Items:         make([]userPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, user := range page.Items {
		resp.Items = append(resp.Items, buildUserPayload(user))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminUserHandlers) changeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "user id is required", http.StatusBadRequest))
		return
	}

	var req changeRoleRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.ChangeRole(ctx, services.ChangeRoleCommand{
		UserID:  userID,
		Role:    strings.ToLower(strings.TrimSpace(req.Role)),
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

func (h *AdminUserHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings are not configured", http.StatusServiceUnavailable))
		return
	}

	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"settings": buildSettingsPayload(settings)})
}

type updateSettingsRequest struct {
	StoreName              *string `json:"storeName"`
	AnnouncementText       *string `json:"announcementText"`
	PreorderEnabled        *bool   `json:"preorderEnabled"`
	LocalDeliveryCharge    *int64  `json:"localDeliveryCharge"`
	NationalDeliveryCharge *int64  `json:"nationalDeliveryCharge"`
	VerifyClientPricing    *bool   `json:"verifyClientPricing"`
}

func (h *AdminUserHandlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings are not configured", http.StatusServiceUnavailable))
		return
	}

	var req updateSettingsRequest
	if err := decodeJSONBody(r, defaultBodyLimit, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.UpdateSettingsCommand{
		PreorderEnabled:        req.PreorderEnabled,
		LocalDeliveryCharge:    req.LocalDeliveryCharge,
		NationalDeliveryCharge: req.NationalDeliveryCharge,
		VerifyClientPricing:    req.VerifyClientPricing,
		ActorID:                actorID(ctx),
	}
	if req.StoreName != nil {
		cleaned := sanitizeText(*req.StoreName)
		cmd.StoreName = &cleaned
	}
	if req.AnnouncementText != nil {
		cleaned := sanitizeText(*req.AnnouncementText)
		cmd.AnnouncementText = &cleaned
	}

	settings, err := h.settings.UpdateSettings(ctx, cmd)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"settings": buildSettingsPayload(settings)})
}

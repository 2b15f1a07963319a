package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/services"
)

type userServiceStub struct {
	syncUser   func(ctx context.Context, cmd services.SyncUserCommand) (services.User, error)
	getUser    func(ctx context.Context, userID string) (services.User, error)
	listUsers  func(ctx context.Context, pager services.Pagination) (domain.CursorPage[services.User], error)
	changeRole func(ctx context.Context, cmd services.ChangeRoleCommand) (services.User, error)
}

func (s *userServiceStub) SyncUser(ctx context.Context, cmd services.SyncUserCommand) (services.User, error) {
	return s.syncUser(ctx, cmd)
}

func (s *userServiceStub) GetUser(ctx context.Context, userID string) (services.User, error) {
	return s.getUser(ctx, userID)
}

func (s *userServiceStub) ListUsers(ctx context.Context, pager services.Pagination) (domain.CursorPage[services.User], error) {
	return s.listUsers(ctx, pager)
}

func (s *userServiceStub) ChangeRole(ctx context.Context, cmd services.ChangeRoleCommand) (services.User, error) {
	return s.changeRole(ctx, cmd)
}

func newAdminUserRouter(users services.UserService, settings services.SettingsService) chi.Router {
	r := chi.NewRouter()
	NewAdminUserHandlers(nil, users, settings).Routes(r)
	return r
}

func TestAdminListUsersForwardsPagination(t *testing.T) {
	var captured services.Pagination
	users := &userServiceStub{
		listUsers: func(_ context.Context, pager services.Pagination) (domain.CursorPage[services.User], error) {
			captured = pager
			return domain.CursorPage[services.User]{
				Items: []services.User{{ID: "user-1", Email: "u@example.com", Role: domain.RoleUser}},
			}, nil
		},
	}

	token := testPageToken(t)
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/users?pageSize=25&pageToken="+token, "", staffIdentity("sub-1", "subadmin"))
	newAdminUserRouter(users, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.PageSize != 25 || captured.PageToken != token {
		t.Fatalf("unexpected pagination %+v", captured)
	}
	payload := decodeBody(t, rec)
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one user, got %v", payload)
	}
	user := items[0].(map[string]any)
	if user["role"] != "user" {
		t.Fatalf("unexpected role %v", user["role"])
	}
}

func TestChangeRoleNormalizesRole(t *testing.T) {
	var captured services.ChangeRoleCommand
	users := &userServiceStub{
		changeRole: func(_ context.Context, cmd services.ChangeRoleCommand) (services.User, error) {
			captured = cmd
			return domain.User{ID: cmd.UserID, Role: domain.RoleSubAdmin}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/users/user-9/role", `{"role":" SubAdmin "}`, staffIdentity("admin-1", "admin"))
	newAdminUserRouter(users, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "user-9" {
		t.Fatalf("unexpected user id %q", captured.UserID)
	}
	if captured.Role != "subadmin" {
		t.Fatalf("unexpected role %q", captured.Role)
	}
	if captured.ActorID != "admin-1" {
		t.Fatalf("unexpected actor %q", captured.ActorID)
	}
}

func TestChangeRoleMapsInvalidInput(t *testing.T) {
	users := &userServiceStub{
		changeRole: func(context.Context, services.ChangeRoleCommand) (services.User, error) {
			return domain.User{}, services.ErrUserInvalidInput
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/users/user-9/role", `{"role":"emperor"}`, staffIdentity("admin-1", "admin"))
	newAdminUserRouter(users, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSettingsPassesOnlyProvidedFields(t *testing.T) {
	var captured services.UpdateSettingsCommand
	settings := &settingsServiceStub{
		updateSettings: func(_ context.Context, cmd services.UpdateSettingsCommand) (services.Settings, error) {
			captured = cmd
			return domain.Settings{NationalDeliveryCharge: 120}, nil
		},
	}

	body := `{"nationalDeliveryCharge":120,"announcementText":"<b>Eid sale!</b>"}`
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPatch, "/settings", body, staffIdentity("admin-1", "admin"))
	newAdminUserRouter(&userServiceStub{}, settings).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.NationalDeliveryCharge == nil || *captured.NationalDeliveryCharge != 120 {
		t.Fatalf("unexpected national delivery charge %v", captured.NationalDeliveryCharge)
	}
	if captured.AnnouncementText == nil || *captured.AnnouncementText != "Eid sale!" {
		t.Fatalf("expected sanitized announcement, got %v", captured.AnnouncementText)
	}
	if captured.StoreName != nil {
		t.Fatal("store name should stay unset when omitted")
	}
	if captured.PreorderEnabled != nil {
		t.Fatal("preorder flag should stay unset when omitted")
	}
}

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

func newMeRouter(users services.UserService) chi.Router {
	r := chi.NewRouter()
	NewMeHandlers(nil, users).Routes(r)
	return r
}

func TestSyncProfileUsesTokenEmail(t *testing.T) {
	var captured services.SyncUserCommand
	users := &userServiceStub{
		syncUser: func(_ context.Context, cmd services.SyncUserCommand) (services.User, error) {
			captured = cmd
			return domain.User{ID: cmd.UserID, Email: cmd.Email, Role: domain.RoleUser}, nil
		},
	}

	body := `{"displayName":"<b>Rahim</b>","photoUrl":" https://img.example/p.png "}`
	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/sync", body, shopperIdentity("shopper-1"))
	newMeRouter(users).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "shopper-1" {
		t.Fatalf("unexpected user id %q", captured.UserID)
	}
	if captured.Email != "shopper-1@example.com" {
		t.Fatalf("expected email from token, got %q", captured.Email)
	}
	if captured.DisplayName != "Rahim" {
		t.Fatalf("expected sanitized display name, got %q", captured.DisplayName)
	}
	if captured.PhotoURL != "https://img.example/p.png" {
		t.Fatalf("unexpected photo url %q", captured.PhotoURL)
	}
}

func TestSyncProfileAllowsEmptyBody(t *testing.T) {
	users := &userServiceStub{
		syncUser: func(_ context.Context, cmd services.SyncUserCommand) (services.User, error) {
			return domain.User{ID: cmd.UserID, Role: domain.RoleUser}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodPost, "/sync", "", shopperIdentity("shopper-2"))
	newMeRouter(users).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetProfileMapsNotFound(t *testing.T) {
	users := &userServiceStub{
		getUser: func(context.Context, string) (services.User, error) {
			return domain.User{}, services.ErrUserNotFound
		},
	}

	rec := httptest.NewRecorder()
	req := authedRequest(t, http.MethodGet, "/", "", shopperIdentity("shopper-3"))
	newMeRouter(users).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

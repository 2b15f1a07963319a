package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "torunhut-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "torunhut-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "torunhut-dev" {
		t.Errorf("expected pubsub project to default to firebase project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.Delivery.LocalCharge != 0 {
		t.Errorf("unexpected default local delivery charge: %d", cfg.Delivery.LocalCharge)
	}
	if cfg.Delivery.NationalCharge != 100 {
		t.Errorf("unexpected default national delivery charge: %d", cfg.Delivery.NationalCharge)
	}
	if cfg.Checkout.ShortIDAttempts != defaultShortIDAttempts {
		t.Errorf("unexpected default short id attempts: %d", cfg.Checkout.ShortIDAttempts)
	}
	if cfg.Sheets.SheetName != "Orders" {
		t.Errorf("unexpected default sheet name: %s", cfg.Sheets.SheetName)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Security.OIDC.JWKSURL != defaultOIDCJWKSURL {
		t.Errorf("expected default jwks url %s, got %s", defaultOIDCJWKSURL, cfg.Security.OIDC.JWKSURL)
	}
	if len(cfg.Security.OIDC.Issuers) != 2 {
		t.Errorf("expected default issuers, got %v", cfg.Security.OIDC.Issuers)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":              "9090",
		"API_SERVER_READ_TIMEOUT":      "20s",
		"API_FIREBASE_PROJECT_ID":      "torunhut-prod",
		"API_FIRESTORE_PROJECT_ID":     "torunhut-fire",
		"API_STORAGE_IMAGES_BUCKET":    "torunhut-images",
		"API_SHEETS_SPREADSHEET_ID":    "sheet-123",
		"API_SHEETS_CREDENTIALS_JSON":  "secret://sheets/service-account",
		"API_PUBSUB_ORDER_TOPIC":       "orders-prod",
		"API_DELIVERY_LOCAL_CHARGE":    "20",
		"API_DELIVERY_NATIONAL_CHARGE": "150",
		"API_SECURITY_OIDC_AUDIENCES":  "prod=https://api.torunhut.example,local=http://localhost",
		"API_SECURITY_ENVIRONMENT":     "prod",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref != "secret://sheets/service-account" {
			return "", errors.New("unexpected ref " + ref)
		}
		return `{"type":"service_account"}`, nil
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""),
		WithSecretResolver(resolver),
		WithRequiredSecrets("Sheets.CredentialsJSON"),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "torunhut-fire" {
		t.Errorf("firestore project override ignored: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Sheets.CredentialsJSON != `{"type":"service_account"}` {
		t.Errorf("sheets credentials not resolved: %q", cfg.Sheets.CredentialsJSON)
	}
	if cfg.Delivery.LocalCharge != 20 || cfg.Delivery.NationalCharge != 150 {
		t.Errorf("delivery overrides ignored: %+v", cfg.Delivery)
	}
	if cfg.Security.OIDC.Audience != "https://api.torunhut.example" {
		t.Errorf("audience not selected from environment map: %s", cfg.Security.OIDC.Audience)
	}
}

func TestLoadMissingRequiredSecret(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "torunhut-dev",
	}

	_, err := Load(context.Background(),
		WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""),
		WithRequiredSecrets("Sheets.CredentialsJSON"),
	)
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %v", err)
	}
	if names := missing.Names(); len(names) != 1 || names[0] != "Sheets.CredentialsJSON" {
		t.Fatalf("unexpected missing secret names: %v", names)
	}
	for _, redacted := range missing.RedactedNames() {
		if redacted == "Sheets.CredentialsJSON" {
			t.Fatalf("redacted names leak the raw identifier")
		}
	}
}

func TestLoadValidationError(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := validation.Fields()
	if len(fields) == 0 {
		t.Fatalf("expected missing fields listed")
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "API_FIREBASE_PROJECT_ID=torunhut-file\nexport API_SERVER_PORT=\"7070\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "torunhut-file" {
		t.Errorf("dotenv project id ignored: %s", cfg.Firebase.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("dotenv port ignored: %s", cfg.Server.Port)
	}
}

func TestEnvironmentValuesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SHARED=from-file\nFILE_ONLY=yes\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	values, err := EnvironmentValues(
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"SHARED": "from-map"}),
	)
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}
	if values["SHARED"] != "from-map" {
		t.Errorf("explicit map should win, got %q", values["SHARED"])
	}
	if values["FILE_ONLY"] != "yes" {
		t.Errorf("dotenv value missing, got %q", values["FILE_ONLY"])
	}
}

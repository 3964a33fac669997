package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIRESTORE_PROJECT_ID":     "demo-project",
		"API_SECURITY_JWT_SIGNING_KEY": "test-key",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(baseEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != StorageDriverFirestore {
		t.Fatalf("expected firestore driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Security.AnonymousHeader != "X-Anonymous-Id" {
		t.Fatalf("expected default anonymous header, got %q", cfg.Security.AnonymousHeader)
	}
	if cfg.PubSub.ProjectID != "demo-project" {
		t.Fatalf("expected pubsub project to default to firestore project, got %q", cfg.PubSub.ProjectID)
	}
}

func TestLoadValidatesRequiredFields(t *testing.T) {
	env := baseEnv()
	delete(env, "API_SECURITY_JWT_SIGNING_KEY")

	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields := validation.Fields(); len(fields) != 1 || fields[0] != "Security.JWTSigningKey" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestLoadMemoryDriverSkipsFirestoreValidation(t *testing.T) {
	env := map[string]string{
		"API_STORAGE_DRIVER":           "memory",
		"API_SECURITY_JWT_SIGNING_KEY": "test-key",
	}
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	env := baseEnv()
	env["API_STORAGE_DRIVER"] = "postgres"

	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "export API_SERVER_PORT=9090\n# comment\nAPI_FIRESTORE_PROJECT_ID=\"file-project\"\nAPI_SECURITY_JWT_SIGNING_KEY=file-key\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090 from file, got %q", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "file-project" {
		t.Fatalf("expected quoted value to be trimmed, got %q", cfg.Firestore.ProjectID)
	}
}

func TestEnvMapOverridesDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("API_SERVER_PORT=9090\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env := baseEnv()
	env["API_SERVER_PORT"] = "7070"
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path), WithEnvMap(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected explicit map to win, got %q", cfg.Server.Port)
	}
}

func TestLoadOrderEventsRequireTopic(t *testing.T) {
	env := baseEnv()
	env["API_FEATURE_ORDER_EVENTS"] = "true"
	env["API_PUBSUB_ORDERS_TOPIC"] = "  "

	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

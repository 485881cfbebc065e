package config

import (
	"context"
	"testing"
)

func TestEnvVarProviderSatisfiesSecretProvider(t *testing.T) {
	var _ SecretProvider = (*EnvVarProvider)(nil)
}

func TestEnvVarProvider_GetParametersBatch(t *testing.T) {
	t.Setenv("ENTITY_EMAILER_TEST_A", "alpha")
	t.Setenv("ENTITY_EMAILER_TEST_EMPTY", "")

	result, err := NewEnvVarProvider().GetParametersBatch(context.Background(),
		[]string{"ENTITY_EMAILER_TEST_A", "ENTITY_EMAILER_TEST_EMPTY", "ENTITY_EMAILER_TEST_UNSET"})
	if err != nil {
		t.Fatalf("GetParametersBatch: %v", err)
	}

	if result["ENTITY_EMAILER_TEST_A"] != "alpha" {
		t.Errorf("A = %q, want alpha", result["ENTITY_EMAILER_TEST_A"])
	}
	if v, ok := result["ENTITY_EMAILER_TEST_EMPTY"]; !ok || v != "" {
		t.Errorf("set-but-empty variable should resolve to empty, got %q (present=%v)", v, ok)
	}
	if _, ok := result["ENTITY_EMAILER_TEST_UNSET"]; ok {
		t.Error("unset variable should be omitted")
	}
}

func TestParamEnvName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/test/entity-emailer/keycloak/client-secret", "TEST_ENTITY_EMAILER_KEYCLOAK_CLIENT_SECRET"},
		{"prod/entity-emailer/db.url", "PROD_ENTITY_EMAILER_DB_URL"},
		{"PLAIN", "PLAIN"},
	}
	for _, tt := range tests {
		if got := ParamEnvName(tt.path); got != tt.want {
			t.Errorf("ParamEnvName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEnvVarProvider_ResolvesParameterPaths(t *testing.T) {
	t.Setenv("TEST_ENTITY_EMAILER_KEYCLOAK_CLIENT_SECRET", "s3cret")

	const path = "/test/entity-emailer/keycloak/client-secret"
	result, err := NewEnvVarProvider().GetParametersBatch(context.Background(), []string{path, "/test/entity-emailer/missing"})
	if err != nil {
		t.Fatalf("GetParametersBatch: %v", err)
	}
	if result[path] != "s3cret" {
		t.Errorf("%s = %q, want s3cret", path, result[path])
	}
	if len(result) != 1 {
		t.Errorf("result = %v, want only the resolved path", result)
	}
}

package config

import (
	"context"
	"os"
	"strings"
)

// EnvVarProvider resolves SSM parameter paths from environment variables, so
// a deployed parameter layout can be reproduced with a plain .env file.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

var paramPathReplacer = strings.NewReplacer("/", "_", "-", "_", ".", "_")

// ParamEnvName maps an SSM path to the variable EnvVarProvider reads, e.g.
// /test/entity-emailer/keycloak/client-secret becomes
// TEST_ENTITY_EMAILER_KEYCLOAK_CLIENT_SECRET.
func ParamEnvName(path string) string {
	return strings.ToUpper(paramPathReplacer.Replace(strings.Trim(path, "/")))
}

// GetParametersBatch returns the keys found in the environment, looked up
// verbatim first and then by ParamEnvName. Missing keys are omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
			continue
		}
		if val, ok := os.LookupEnv(ParamEnvName(key)); ok {
			result[key] = val
		}
	}
	return result, nil
}

package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	validWorkspaceID = "11111111-1111-1111-1111-111111111111"
	validSharedKey   = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x2a}, 64))
)

var configEnvVars = []string{
	"WORKSPACE_ID", "SHARED_KEY", "SECRET_OCID", "VAULT_REGION", "LOG_TYPE",
	"ENDPOINT_SUFFIX", "RESOURCE_ID", "TIME_GENERATED_FIELD", "HTTP_TIMEOUT_SECONDS",
	"DEBUG_ENABLED", "TRACE_ENABLED", "TRACE_SERVICE_NAME",
}

// clearConfigEnv unsets every variable Load reads; t.Setenv restores them after the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectError bool
		description string
	}{
		{
			name: "shared key from environment",
			env: map[string]string{
				"WORKSPACE_ID": validWorkspaceID,
				"SHARED_KEY":   validSharedKey,
				"LOG_TYPE":     "AppLog",
			},
			description: "Should load a complete configuration",
		},
		{
			name: "shared key from vault",
			env: map[string]string{
				"WORKSPACE_ID": validWorkspaceID,
				"SECRET_OCID":  "ocid1.vaultsecret.test",
				"VAULT_REGION": "us-phoenix-1",
			},
			description: "Should accept a vault secret instead of a shared key",
		},
		{
			name: "vault secret without region",
			env: map[string]string{
				"WORKSPACE_ID": validWorkspaceID,
				"SECRET_OCID":  "ocid1.vaultsecret.test",
			},
			expectError: true,
			description: "Should require the vault region with a vault secret",
		},
		{
			name:        "missing workspace id",
			env:         map[string]string{"SHARED_KEY": validSharedKey},
			expectError: true,
			description: "Should require the workspace id",
		},
		{
			name:        "workspace id is not a guid",
			env:         map[string]string{"WORKSPACE_ID": "my-workspace", "SHARED_KEY": validSharedKey},
			expectError: true,
			description: "Should require a GUID workspace id",
		},
		{
			name:        "missing shared key",
			env:         map[string]string{"WORKSPACE_ID": validWorkspaceID},
			expectError: true,
			description: "Should require a shared key when no vault secret is configured",
		},
		{
			name:        "short shared key",
			env:         map[string]string{"WORKSPACE_ID": validWorkspaceID, "SHARED_KEY": "QUJD"},
			expectError: true,
			description: "Should require an 88 character shared key",
		},
		{
			name: "invalid log type",
			env: map[string]string{
				"WORKSPACE_ID": validWorkspaceID,
				"SHARED_KEY":   validSharedKey,
				"LOG_TYPE":     "My-Log",
			},
			expectError: true,
			description: "Should reject log types with special characters",
		},
		{
			name: "invalid endpoint suffix",
			env: map[string]string{
				"WORKSPACE_ID":    validWorkspaceID,
				"SHARED_KEY":      validSharedKey,
				"ENDPOINT_SUFFIX": "not a host",
			},
			expectError: true,
			description: "Should reject an endpoint suffix that is not a host name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err, tt.description)
				return
			}
			require.NoError(t, err, tt.description)
			assert.Equal(t, validWorkspaceID, cfg.WorkspaceID)
		})
	}
}

// TestLoadErrorNamesVariable verifies validation errors name the offending environment variable
func TestLoadErrorNamesVariable(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expectedVar string
		description string
	}{
		{
			name:        "missing workspace id",
			env:         map[string]string{"SHARED_KEY": validSharedKey},
			expectedVar: "WORKSPACE_ID",
			description: "Should name WORKSPACE_ID",
		},
		{
			name:        "workspace id in braces",
			env:         map[string]string{"WORKSPACE_ID": "{" + validWorkspaceID + "}", "SHARED_KEY": validSharedKey},
			expectedVar: "WORKSPACE_ID",
			description: "Should only accept the 36 character GUID form",
		},
		{
			name:        "short shared key",
			env:         map[string]string{"WORKSPACE_ID": validWorkspaceID, "SHARED_KEY": "QUJD"},
			expectedVar: "SHARED_KEY",
			description: "Should name SHARED_KEY",
		},
		{
			name:        "vault secret without region",
			env:         map[string]string{"WORKSPACE_ID": validWorkspaceID, "SECRET_OCID": "ocid1.vaultsecret.test"},
			expectedVar: "VAULT_REGION",
			description: "Should name VAULT_REGION",
		},
		{
			name:        "invalid log type",
			env:         map[string]string{"WORKSPACE_ID": validWorkspaceID, "SHARED_KEY": validSharedKey, "LOG_TYPE": "My-Log"},
			expectedVar: "LOG_TYPE",
			description: "Should fall back to the koanf key for other fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err, tt.description)
			assert.Contains(t, err.Error(), tt.expectedVar, tt.description)
		})
	}
}

func TestLoadDefaultsAndOptions(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WORKSPACE_ID", validWorkspaceID)
	t.Setenv("SHARED_KEY", validSharedKey)
	t.Setenv("ENDPOINT_SUFFIX", "ods.opinsights.azure.us")
	t.Setenv("RESOURCE_ID", "/subscriptions/s")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("TRACE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogType, cfg.LogType)
	assert.Equal(t, DefaultTraceServiceName, cfg.TraceServiceName)
	assert.True(t, cfg.TraceEnabled)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.Len(t, cfg.ClientOptions(), 1)
	assert.Len(t, cfg.SendOptions(), 2)

	cfg.HTTPTimeoutSeconds = 0
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout())
}

func TestLoadEnvFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "WORKSPACE_ID=" + validWorkspaceID + "\nSHARED_KEY=" + validSharedKey + "\nLOG_TYPE=TuplesLog\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "TuplesLog", cfg.LogType)
	assert.Equal(t, validSharedKey, cfg.SharedKey)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

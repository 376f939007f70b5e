package logger

import (
	"bytes"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/ConnectingApps/CustomCloudLogger/common"
)

// TestWithLogLevel tests the WithLogLevel function of the LogrusLogger.
// It verifies that the log level is set correctly based on the input level.
func TestWithLogLevel(t *testing.T) {
	tests := []struct {
		name          string    // Name of the test case
		inputLevel    string    // Input log level
		expectedLevel log.Level // Expected log level
	}{
		{"ValidDebug", "debug", log.DebugLevel},
		{"ValidInfo", "info", log.InfoLevel},
		{"ValidWarn", "warn", log.WarnLevel},
		{"ValidError", "error", log.ErrorLevel},
		{"InvalidLevel", "invalid", log.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := NewLogrusLogger(WithOutput(&bytes.Buffer{}), WithLogLevel(tc.inputLevel))
			assert.Equal(t, tc.expectedLevel, logger.GetLevel(), "WithLogLevel(%s)", tc.inputLevel)
		})
	}
}

// TestWithDebugLevel verifies that the log level follows the DEBUG_ENABLED environment variable.
func TestWithDebugLevel(t *testing.T) {
	tests := []struct {
		name          string    // Name of the test case
		debugEnabled  string    // DEBUG_ENABLED environment variable value
		expectedLevel log.Level // Expected log level
	}{
		{"DebugEnabled", "true", log.DebugLevel},
		{"DebugDisabled", "false", log.InfoLevel},
		{"DebugEmpty", "", log.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			os.Setenv(common.DebugEnabled, tc.debugEnabled)
			defer os.Unsetenv(common.DebugEnabled)

			logger := NewLogrusLogger(WithDebugLevel())
			assert.Equal(t, tc.expectedLevel, logger.GetLevel(), "DEBUG_ENABLED=%v", tc.debugEnabled)
		})
	}
}

// TestWithFormat verifies that LOG_FORMAT=json switches to structured output.
func TestWithFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLogger(WithOutput(&buf), WithFormat("JSON"))
	logger.WithField("logType", "AppLog").Info("sent")

	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)
	assert.Contains(t, buf.String(), `"logType":"AppLog"`)

	logger = NewLogrusLogger(WithFormat(""))
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}

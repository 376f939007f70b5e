// Package config loads the forwarder and example settings from the environment.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/ConnectingApps/CustomCloudLogger/common"
	"github.com/ConnectingApps/CustomCloudLogger/loganalytics"
	"github.com/ConnectingApps/CustomCloudLogger/logger"
)

const (
	// DefaultLogType is the custom log table used when LOG_TYPE is not set.
	DefaultLogType = "OCILogs"
	// DefaultHTTPTimeout bounds a single Data Collector API call.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultTraceServiceName is the APM service name used when tracing is enabled.
	DefaultTraceServiceName = "loganalytics-function"
)

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// Config holds everything needed to build a Log Analytics client and address a log table.
type Config struct {
	WorkspaceID        string `koanf:"workspace_id" validate:"required,workspaceid"`
	SharedKey          string `koanf:"shared_key" validate:"required_without=SecretOCID,sharedkey"`
	SecretOCID         string `koanf:"secret_ocid"`
	VaultRegion        string `koanf:"vault_region" validate:"required_with=SecretOCID"`
	LogType            string `koanf:"log_type" validate:"required,logtype"`
	EndpointSuffix     string `koanf:"endpoint_suffix" validate:"omitempty,fqdn"`
	ResourceID         string `koanf:"resource_id"`
	TimeGeneratedField string `koanf:"time_generated_field"`
	HTTPTimeoutSeconds int    `koanf:"http_timeout_seconds" validate:"gte=0"`
	DebugEnabled       bool   `koanf:"debug_enabled"`
	TraceEnabled       bool   `koanf:"trace_enabled"`
	TraceServiceName   string `koanf:"trace_service_name"`
}

// Load reads the optional dotenv files, then the process environment, and validates the result.
// Variables already present in the environment win over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := newValidator().Struct(cfg); err != nil {
		return nil, describeValidationError(err)
	}

	log.WithField("workspaceId", cfg.WorkspaceID).
		WithField("logType", cfg.LogType).
		WithField("sharedKeyFromVault", cfg.SharedKey == "").
		Debug("loaded configuration")
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogType == "" {
		c.LogType = DefaultLogType
	}
	if c.TraceServiceName == "" {
		c.TraceServiceName = DefaultTraceServiceName
	}
}

// envNames maps the Config fields that name a credential to the variable they are read from.
var envNames = map[string]string{
	"WorkspaceID": common.EnvWorkspaceID,
	"SharedKey":   common.EnvSharedKey,
	"SecretOCID":  common.SecretOCID,
	"VaultRegion": common.VaultRegion,
}

// envName returns the environment variable behind a Config field.
func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	if sf, ok := reflect.TypeOf(Config{}).FieldByName(field); ok {
		return strings.ToUpper(sf.Tag.Get("koanf"))
	}
	return field
}

// describeValidationError reports validation failures by environment variable name.
func describeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed the '%s' rule", envName(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s: %w", strings.Join(problems, "; "), err)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// Registration only fails for empty tags or nil functions.
	_ = validate.RegisterValidation("workspaceid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != common.WorkspaceIDLength {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	})
	_ = validate.RegisterValidation("logtype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= loganalytics.MaxLogTypeLength && loganalytics.IsValidLogType(s)
	})
	_ = validate.RegisterValidation("sharedkey", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || (len(s) == common.SharedKeyLength && loganalytics.IsBase64String(s))
	})
	return validate
}

// HTTPTimeout returns the per-request timeout for the Data Collector API.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeout
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ClientOptions returns the client options derived from the configuration.
func (c *Config) ClientOptions() []loganalytics.Option {
	return []loganalytics.Option{
		loganalytics.WithEndpointSuffix(c.EndpointSuffix),
	}
}

// SendOptions returns the per-request options derived from the configuration.
func (c *Config) SendOptions() []loganalytics.SendOption {
	return []loganalytics.SendOption{
		loganalytics.WithResourceID(c.ResourceID),
		loganalytics.WithTimeGeneratedField(c.TimeGeneratedField),
	}
}

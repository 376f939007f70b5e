package util

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	ociCommon "github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/secrets"

	"github.com/ConnectingApps/CustomCloudLogger/config"
	"github.com/ConnectingApps/CustomCloudLogger/logger"
)

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// OCISecretsManagerAPI is an interface for interacting with OCI Secrets Manager.
type OCISecretsManagerAPI interface {
	GetSecretBundle(ctx context.Context, request secrets.GetSecretBundleRequest) (secrets.GetSecretBundleResponse, error)
	SetRegion(regionId string)
}

// newSecretsClient is swapped in tests to avoid resource principal authentication.
var newSecretsClient = NewOCISecretsManagerClient

// GetSecretFromOCIVault retrieves a secret from OCI Vault.
// It returns the secret string and an error if any.
func GetSecretFromOCIVault(ctx context.Context, secretsClient OCISecretsManagerAPI, secretOCID string, vaultRegion string) (string, error) {
	if secretOCID == "" {
		return "", errors.New("secret OCID is empty")
	}
	if vaultRegion == "" {
		return "", errors.New("vault region is empty")
	}

	secretsClient.SetRegion(vaultRegion)

	scResponse, err := secretsClient.GetSecretBundle(ctx, secrets.GetSecretBundleRequest{
		SecretId: ociCommon.String(secretOCID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret bundle: %w", err)
	}
	log.Debug("successfully fetched secret from OCI vault")

	secretContent, ok := scResponse.SecretBundleContent.(secrets.Base64SecretBundleContentDetails)
	if !ok {
		log.WithField("secretOCID", secretOCID).Error("unexpected secret content type")
		return "", fmt.Errorf("unexpected secret content type")
	}
	if secretContent.Content == nil {
		log.WithField("secretOCID", secretOCID).Error("secret content is nil")
		return "", fmt.Errorf("secret content is nil")
	}

	decodedSecret, err := base64.StdEncoding.DecodeString(*secretContent.Content)
	if err != nil {
		log.WithField("error", err).WithField("secretOCID", secretOCID).Error("failed to base64 decode secret content")
		return "", fmt.Errorf("failed to decode secret content: %w", err)
	}

	// Secrets pasted through the console often carry a trailing newline.
	return strings.TrimSpace(string(decodedSecret)), nil
}

// NewOCISecretsManagerClient creates a new OCI Secrets Manager client authenticated as the function's resource principal.
func NewOCISecretsManagerClient() (OCISecretsManagerAPI, error) {
	provider, err := auth.ResourcePrincipalConfigurationProvider()
	if err != nil {
		log.WithField("error", err).Error("failed to create resource principal configuration provider")
		return nil, fmt.Errorf("failed to create resource principal configuration provider: %w", err)
	}

	secretsClient, err := secrets.NewSecretsClientWithConfigurationProvider(provider)
	if err != nil {
		log.WithField("error", err).Error("failed to create OCI secrets client")
		return nil, fmt.Errorf("failed to create OCI secrets client: %w", err)
	}

	return &secretsClient, nil
}

// GetSharedKeyWithContext returns the workspace shared key from the configuration or, when it is
// not set there, from the OCI Vault secret named by the configuration.
func GetSharedKeyWithContext(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.SharedKey != "" {
		log.Debug("using shared key from environment variable")
		return cfg.SharedKey, nil
	}

	log.Debug("fetching shared key from OCI vault")

	secretsClient, err := newSecretsClient()
	if err != nil {
		return "", err
	}

	return GetSecretFromOCIVault(ctx, secretsClient, cfg.SecretOCID, cfg.VaultRegion)
}

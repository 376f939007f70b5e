// Package util provides utility functions for Log Analytics client operations,
// secret management, and message processing for the OCI log integration.
package util

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"

	"github.com/ConnectingApps/CustomCloudLogger/common"
	"github.com/ConnectingApps/CustomCloudLogger/config"
	"github.com/ConnectingApps/CustomCloudLogger/loganalytics"
)

// LogAnalyticsClientAPI is the subset of loganalytics.Client used by the forwarder.
type LogAnalyticsClientAPI interface {
	SendLogEntries(ctx context.Context, entries any, logType string, opts ...loganalytics.SendOption) error
	Close() error
}

// ConsumeLogBatches consumes log batches from a channel and posts each one with a single SendLogEntries call.
// The function returns when the channel is closed or the context is cancelled.
func ConsumeLogBatches(ctx context.Context, channel <-chan common.LogBatch, wg *sync.WaitGroup, client LogAnalyticsClientAPI, logType string, opts ...loganalytics.SendOption) {
	defer wg.Done()

	for {
		select {
		case batch, ok := <-channel:
			if !ok {
				return
			}
			if err := client.SendLogEntries(ctx, batch, logType, opts...); err != nil {
				log.WithField("records", len(batch)).Errorf("error posting log batch: %v", err)
				// Continue processing other batches instead of terminating
				continue
			}
		case <-ctx.Done():
			return
		}
	}
}

// NewHTTPClient returns the HTTP client used for Data Collector API calls, traced with Datadog APM when enabled.
func NewHTTPClient(cfg *config.Config) *http.Client {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}
	if cfg.TraceEnabled {
		httpClient = httptrace.WrapClient(httpClient, httptrace.RTWithServiceName(cfg.TraceServiceName))
	}
	return httpClient
}

// NewLogAnalyticsClient resolves the shared key and builds a Log Analytics client from the configuration.
func NewLogAnalyticsClient(ctx context.Context, cfg *config.Config) (LogAnalyticsClientAPI, error) {
	sharedKey, err := GetSharedKeyWithContext(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.ClientOptions(),
		loganalytics.WithHTTPClient(NewHTTPClient(cfg)),
		loganalytics.WithLogger(log),
	)
	client, err := loganalytics.New(cfg.WorkspaceID, sharedKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create log analytics client: %w", err)
	}
	return client, nil
}

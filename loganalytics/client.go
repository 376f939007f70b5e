// Package loganalytics sends custom log records to the Azure Log Analytics HTTP Data Collector API.
//
// Reference: https://learn.microsoft.com/azure/azure-monitor/logs/data-collector-api
package loganalytics

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/sirupsen/logrus"

	"github.com/ConnectingApps/CustomCloudLogger/logger"
)

const (
	// DefaultEndpointSuffix is the Data Collector API host suffix of the Azure commercial cloud.
	DefaultEndpointSuffix = "ods.opinsights.azure.com"
	// APIVersion is the Data Collector API version requested by the client.
	APIVersion = "2016-04-01"

	resourcePath             = "/api/logs"
	contentTypeJSON          = "application/json"
	xMsDateHeader            = "x-ms-date"
	logTypeHeader            = "Log-Type"
	timeGeneratedFieldHeader = "time-generated-field"
	azureResourceIDHeader    = "x-ms-AzureResourceId"

	// maxErrorBodySize caps how much of a failed response body is kept in a StatusError.
	maxErrorBodySize = 4 * 1024
)

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// Client sends log records to a single Log Analytics workspace.
// A Client is safe for concurrent use and must be released with Close.
type Client struct {
	workspaceID string
	key         []byte
	requestURL  string
	httpClient  *http.Client
	now         func() time.Time
	log         *logrus.Logger

	closeOnce sync.Once
	closed    atomic.Bool
}

type clientConfig struct {
	endpointSuffix string
	httpClient     *http.Client
	now            func() time.Time
	log            *logrus.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithEndpointSuffix overrides the Data Collector API host suffix, e.g. for sovereign clouds.
// An empty suffix keeps DefaultEndpointSuffix.
func WithEndpointSuffix(suffix string) Option {
	return func(c *clientConfig) {
		if suffix != "" {
			c.endpointSuffix = suffix
		}
	}
}

// WithHTTPClient sets the HTTP client used to reach the API. The Client takes ownership of it.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *clientConfig) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClock sets the source of the x-ms-date timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.log = l
		}
	}
}

func cachedNow() time.Time {
	return time.Unix(0, timecache.CachedTimeNano())
}

// New validates the workspace credentials and returns a Client posting to
// https://{workspaceID}.{endpointSuffix}/api/logs.
func New(workspaceID, sharedKey string, opts ...Option) (*Client, error) {
	if workspaceID == "" {
		return nil, invalidArgument("workspaceId", "cannot be empty")
	}
	if strings.TrimSpace(sharedKey) == "" {
		return nil, invalidArgument("sharedKey", "cannot be empty")
	}
	key, err := decodeSharedKey(sharedKey)
	if err != nil {
		return nil, err
	}

	cfg := clientConfig{
		endpointSuffix: DefaultEndpointSuffix,
		now:            cachedNow,
		log:            log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{}
	}

	return &Client{
		workspaceID: workspaceID,
		key:         key,
		requestURL:  fmt.Sprintf("https://%s.%s%s?api-version=%s", workspaceID, cfg.endpointSuffix, resourcePath, APIVersion),
		httpClient:  cfg.httpClient,
		now:         cfg.now,
		log:         cfg.log,
	}, nil
}

// RequestURL returns the URL every request is posted to.
func (c *Client) RequestURL() string {
	return c.requestURL
}

// SendLogEntry validates a single record and posts it under logType.
func (c *Client) SendLogEntry(ctx context.Context, entry any, logType string, opts ...SendOption) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if isNil(entry) {
		return invalidArgument("entity", "cannot be nil")
	}
	if err := validateLogType(logType); err != nil {
		return err
	}
	fields, err := recordFieldsOf(reflect.ValueOf(entry))
	if err != nil {
		return err
	}
	return c.send(ctx, [][]recordField{fields}, logType, opts)
}

// SendLogEntries validates every record of entries, a slice or array, and posts them
// as one JSON array under logType. An empty batch sends nothing.
func (c *Client) SendLogEntries(ctx context.Context, entries any, logType string, opts ...SendOption) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	v := reflect.ValueOf(entries)
	if !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
		return invalidArgument("entities", "cannot be nil")
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return invalidArgument("entities", fmt.Sprintf("must be a slice or an array, got %s", v.Type()))
	}
	if err := validateLogType(logType); err != nil {
		return err
	}
	if v.Len() == 0 {
		return nil
	}

	records := make([][]recordField, v.Len())
	for i := range records {
		fields, err := recordFieldsOf(v.Index(i))
		if err != nil {
			return err
		}
		records[i] = fields
	}
	return c.send(ctx, records, logType, opts)
}

func (c *Client) send(ctx context.Context, records [][]recordField, logType string, opts []SendOption) error {
	var so sendOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&so)
		}
	}

	body, err := encodeRecords(records)
	if err != nil {
		return err
	}
	date := c.now().UTC().Format(http.TimeFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Authorization", BuildSignature(c.workspaceID, c.key, len(body), date))
	req.Header.Set(logTypeHeader, logType)
	// Azure documents these headers in lower and mixed case; keep their spelling on the wire.
	req.Header[xMsDateHeader] = []string{date}
	if strings.TrimSpace(so.timeGeneratedField) != "" {
		req.Header[timeGeneratedFieldHeader] = []string{so.timeGeneratedField}
	}
	if strings.TrimSpace(so.resourceID) != "" {
		req.Header[azureResourceIDHeader] = []string{so.resourceID}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		c.log.WithField("logType", logType).WithField("status", resp.StatusCode).Debug("log analytics rejected the request")
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(respBody)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.WithField("logType", logType).WithField("records", len(records)).Debug("successfully sent log entries to log analytics")
	return nil
}

// Close releases the underlying HTTP transport. Calls made after Close fail with ErrClientClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

func decodeSharedKey(sharedKey string) ([]byte, error) {
	if !IsBase64String(sharedKey) {
		return nil, &ArgumentError{Kind: ErrInvalidFormat, Param: "sharedKey", Message: "must be a valid Base64 encoded string"}
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sharedKey))
	if err != nil {
		return nil, &ArgumentError{Kind: ErrInvalidFormat, Param: "sharedKey", Message: fmt.Sprintf("must be a valid Base64 encoded string: %v", err)}
	}
	return key, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type sendOptions struct {
	resourceID         string
	timeGeneratedField string
}

// SendOption sets optional request metadata.
type SendOption func(*sendOptions)

// WithResourceID associates the records with an Azure resource through the x-ms-AzureResourceId header.
func WithResourceID(resourceID string) SendOption {
	return func(o *sendOptions) {
		o.resourceID = resourceID
	}
}

// WithTimeGeneratedField names the record field holding the TimeGenerated value.
func WithTimeGeneratedField(field string) SendOption {
	return func(o *sendOptions) {
		o.timeGeneratedField = field
	}
}

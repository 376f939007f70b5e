// Package unmarshal provides functions to unmarshal events from various sources such as OCI Logging.
package unmarshal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ConnectingApps/CustomCloudLogger/common"
	"github.com/ConnectingApps/CustomCloudLogger/logger"
)

// Defines the event types
const (
	OCI_LOGGING = "ociLogging" // OCI_LOGGING represents the event type for Oracle Cloud Infrastructure logging events.
)

// ErrEmptyPayload is returned when the function is invoked without a body.
var ErrEmptyPayload = errors.New("empty payload")

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// Event represents the unified event structure.
type Event struct {
	EventType       string                 // EventType represents the type of the event.
	OCILoggingEvent common.OCILoggingEvent // OCILoggingEvent represents the Oracle Cloud Infrastructure logging events.
}

// Unmarshal decodes a Service Connector Hub payload, a JSON array of log events or a single event.
// Numbers are kept as json.Number so integers survive the round trip.
func (event *Event) Unmarshal(in io.Reader) error {
	payloadBytes, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("error reading incoming payload: %w", err)
	}
	payloadBytes = bytes.TrimSpace(payloadBytes)
	if len(payloadBytes) == 0 {
		return ErrEmptyPayload
	}

	var incomingLogEvent common.OCILoggingEvent
	if payloadBytes[0] == '{' {
		var single map[string]interface{}
		if err := decode(payloadBytes, &single); err != nil {
			return fmt.Errorf("error decoding incoming log event: %w", err)
		}
		log.Debug("decoded payload as a single log event")
		incomingLogEvent = common.OCILoggingEvent{single}
	} else if err := decode(payloadBytes, &incomingLogEvent); err != nil {
		return fmt.Errorf("error decoding incoming log events payload: %w", err)
	}

	event.EventType = OCI_LOGGING
	event.OCILoggingEvent = incomingLogEvent
	return nil
}

func decode(data []byte, v interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

// Package loggroup turns OCI log events into flat Log Analytics records and batches them
// for transmission to the Data Collector API.
package loggroup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ConnectingApps/CustomCloudLogger/common"
	"github.com/ConnectingApps/CustomCloudLogger/logger"
	"github.com/ConnectingApps/CustomCloudLogger/util"
)

var log = logger.NewLogrusLogger(logger.WithDebugLevel())

// ProcessLogs flattens OCI logging events and splits them into batches for Log Analytics ingestion.
// It stamps instrumentation metadata on each record and sends the batches through the provided channel.
// Batches respect the Data Collector API payload limit.
func ProcessLogs(OCILoggingEvent common.OCILoggingEvent, channel chan common.LogBatch) error {
	attributes := common.LogRecord{
		"InstrumentationProvider": common.InstrumentationProvider,
		"InstrumentationName":     common.InstrumentationName,
		"InstrumentationVersion":  common.InstrumentationVersion,
	}

	records := make(common.LogBatch, 0, len(OCILoggingEvent))
	for _, event := range OCILoggingEvent {
		records = append(records, FlattenEvent(event))
	}

	return splitLogsIntoBatches(records, common.MaxPayloadSize, attributes, channel)
}

// FlattenEvent converts a nested OCI event into a record the Data Collector API accepts.
// Nested objects become underscore-joined field names and arrays are kept as JSON text.
func FlattenEvent(event map[string]interface{}) common.LogRecord {
	record := make(common.LogRecord, len(event))
	flattenMap(event, "", record)
	return record
}

// flattenMap walks keys in sorted order so that names colliding after sanitizing
// or flattening always resolve the same way: the first keeps the name, later ones get a numeric suffix.
func flattenMap(source map[string]interface{}, prefix string, result common.LogRecord) {
	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := source[k]
		newKey := sanitizeFieldName(k)
		if prefix != "" {
			newKey = prefix + common.FieldSeparator + newKey
		}
		if _, nested := v.(map[string]interface{}); !nested {
			newKey = uniqueFieldName(result, newKey)
		}

		switch val := v.(type) {
		case map[string]interface{}:
			flattenMap(val, newKey, result)
		case []interface{}:
			encoded, err := json.Marshal(val)
			if err != nil {
				log.Debugf("could not encode array field %s: %v", newKey, err)
				continue
			}
			result[newKey] = truncate(string(encoded))
		case json.Number:
			if i, err := val.Int64(); err == nil {
				result[newKey] = i
			} else if f, err := val.Float64(); err == nil {
				result[newKey] = f
			} else {
				result[newKey] = val.String()
			}
		case string:
			result[newKey] = truncate(val)
		case nil, bool, float64, int64, int32, int:
			result[newKey] = val
		default:
			result[newKey] = truncate(fmt.Sprint(val))
		}
	}
}

func uniqueFieldName(record common.LogRecord, name string) string {
	if _, taken := record[name]; !taken {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%s%d", name, common.FieldSeparator, i)
		if _, taken := record[candidate]; !taken {
			log.Debugf("field %s already set, storing value as %s", name, candidate)
			return candidate
		}
	}
}

// sanitizeFieldName keeps letters, digits and underscores, the only characters allowed in custom field names.
func sanitizeFieldName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func truncate(s string) string {
	if len(s) <= common.MaxFieldValueSize {
		return s
	}
	return s[:common.MaxFieldValueSize]
}

func splitLogsIntoBatches(records common.LogBatch, maxPayloadSize int, commonAttributes common.LogRecord, channel chan common.LogBatch) error {
	attributesSize := 0
	if len(commonAttributes) > 0 {
		encoded, err := json.Marshal(commonAttributes)
		if err != nil {
			return fmt.Errorf("could not encode common attributes: %w", err)
		}
		attributesSize = len(encoded)
	}

	var currentBatch common.LogBatch
	currentBatchSize := 2 // enclosing brackets

	for _, record := range records {
		logBytes, err := json.Marshal(record)
		if err != nil {
			log.Debugf("Warning: Could not marshal log record for size estimation: %v", err)
			continue
		}
		logSize := len(logBytes) + attributesSize + 1

		if currentBatchSize+logSize > maxPayloadSize && len(currentBatch) > 0 {
			util.ProduceMessageToChannel(channel, currentBatch, commonAttributes)
			currentBatch = nil
			currentBatchSize = 2
		}
		currentBatch = append(currentBatch, record)
		currentBatchSize += logSize
	}

	if len(currentBatch) > 0 {
		util.ProduceMessageToChannel(channel, currentBatch, commonAttributes)
	}

	return nil
}

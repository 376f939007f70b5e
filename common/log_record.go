package common

// LogRecord is a flat record ready for the Data Collector API.
// Values are limited to the field types the API accepts.
type LogRecord map[string]interface{}

// LogBatch is a group of records posted in a single request.
type LogBatch []LogRecord

package common

// OCILoggingEvent represents a collection of OCI log entries delivered by Service Connector Hub.
// Entries are nested JSON objects and must be flattened before they can be posted.
type OCILoggingEvent []map[string]interface{}

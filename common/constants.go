// Package common provides common constants structs and variables.
package common

// InstrumentationProvider identifies the log source stamped on every forwarded record.
const InstrumentationProvider = "oci"

// InstrumentationName identifies the forwarder stamped on every forwarded record.
const InstrumentationName = "loganalytics-function"

// InstrumentationVersion is the forwarder version stamped on every forwarded record.
const InstrumentationVersion = "1.0.0"

// EnvWorkspaceID is the name of the environment variable for the Log Analytics workspace id.
const EnvWorkspaceID = "WORKSPACE_ID"

// EnvSharedKey is the name of the environment variable for the workspace shared key.
const EnvSharedKey = "SHARED_KEY"

// SecretOCID is the name of the environment variable for the OCI Vault secret holding the shared key.
const SecretOCID = "SECRET_OCID"

// VaultRegion is the name of the environment variable for the OCI Vault region.
const VaultRegion = "VAULT_REGION"

// DebugEnabled is the name of the environment variable for enabling debug mode.
const DebugEnabled = "DEBUG_ENABLED"

// WorkspaceIDLength is the length of a workspace id, a GUID in its 8-4-4-4-12 form.
const WorkspaceIDLength = 36

// SharedKeyLength is the length of a Base64 encoded workspace shared key.
const SharedKeyLength = 88

// MaxPayloadSize is the maximum size of a single post to the Data Collector API.
// Reference: https://learn.microsoft.com/azure/azure-monitor/logs/data-collector-api#data-limits
const MaxPayloadSize = 30 * 1024 * 1024 // 30 mb

// MaxFieldValueSize is the maximum size of a single field value. Longer values are truncated by the API.
const MaxFieldValueSize = 32 * 1024 // 32 kb

// FieldSeparator joins the names of nested OCI event attributes into a flat field name.
const FieldSeparator = "_"

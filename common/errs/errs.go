package errs

// ErrorKind identifies a kind of internal error.
// Match with errors.Is.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when a caller passes an invalid value.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unsupported is returned when a requested feature or backend is not supported.
	Unsupported = ErrorKind("Unsupported")

	// Timeout is returned when an operation does not finish in time.
	Timeout = ErrorKind("Timeout")

	// ConflictSetting is returned when persisted state conflicts with the current configuration.
	ConflictSetting = ErrorKind("Conflict Setting")
)

// Ingestion error taxonomy.
const (
	// TransientNode is returned when the node is temporarily unavailable
	// (timeouts, dropped connections, missing block or receipt). Retried at batch level.
	TransientNode = ErrorKind("Transient Node Error")

	// MalformedResponse is returned when the node returns data with an unexpected shape.
	// Treated as a batch failure and retried.
	MalformedResponse = ErrorKind("Malformed Response")

	// SinkWrite is returned when a sink rejects or fails a write.
	SinkWrite = ErrorKind("Sink Write Error")

	// Configuration is returned for invalid startup configuration. Never retried.
	Configuration = ErrorKind("Configuration Error")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

package api

// DispatchErrorKind classifies a failed ability invocation.
type DispatchErrorKind string

const (
	// DispatchErrorUnknownServer means no backend is registered or
	// reachable under the requested server identifier.
	DispatchErrorUnknownServer DispatchErrorKind = "unknown_server"

	// DispatchErrorUnknownAbility means the backend does not implement
	// the requested ability.
	DispatchErrorUnknownAbility DispatchErrorKind = "unknown_ability"

	// DispatchErrorHandler means the ability handler returned an error.
	DispatchErrorHandler DispatchErrorKind = "handler_error"

	// DispatchErrorPanic means the ability handler panicked.
	DispatchErrorPanic DispatchErrorKind = "handler_panic"

	// DispatchErrorTransport means the call failed before reaching the
	// ability implementation (connection, protocol, decoding).
	DispatchErrorTransport DispatchErrorKind = "transport_error"
)

// DispatchError is the error-shaped result a failed ability invocation
// degrades to. The dispatcher never raises; it merges this structure into
// the record under the "error" key and the pipeline continues.
type DispatchError struct {
	Kind    DispatchErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// ErrorUpdates wraps a DispatchError as a field-update map, ready for the
// ledger merge.
func ErrorUpdates(kind DispatchErrorKind, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"kind":    string(kind),
			"message": message,
		},
	}
}

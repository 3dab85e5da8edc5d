package logger

// Field keys shared by every package.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldError        = "error"
	FieldErrorKind    = "error_kind"
	FieldDiscoveryURL = "discovery_url"
	FieldAttempt      = "attempt"
	FieldBackoff      = "backoff"
	FieldStatusCode   = "status_code"
	FieldKeyID        = "kid"
)

// Fields builds a field map from alternating keys and values. Non-string
// keys and a trailing key without value are dropped.
//
//	log.Warn("retrying", logger.Fields(logger.FieldAttempt, 2))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

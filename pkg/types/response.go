package types

// SuccessEnvelope is the body of every 2xx JSON response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error payload. Details carries per-field
// validation messages and is omitted unless the error code allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx JSON response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewSuccess wraps data in the standard success envelope.
func NewSuccess(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// NewError builds the standard error envelope.
func NewError(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}

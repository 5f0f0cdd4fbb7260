package types

// SuccessEnvelope wraps every successful API response.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorEnvelope wraps every failed API response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// NewSuccess builds a success envelope around the payload.
func NewSuccess(data any) SuccessEnvelope {
	return SuccessEnvelope{Success: true, Data: data}
}

// NewError builds an error envelope with the public code and message.
func NewError(code, message string, errs any) ErrorEnvelope {
	return ErrorEnvelope{Success: false, Code: code, Message: message, Errors: errs}
}

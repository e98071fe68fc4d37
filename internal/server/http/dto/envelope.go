package dto

// Envelope is the common JSON response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps data into a successful envelope.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Failure builds an unsuccessful envelope.
func Failure(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

package dto

// ErrorResponse cuerpo de error HTTP: {kind, field, message, details}.
type ErrorResponse struct {
	Kind    string       `json:"kind"`
	Field   string       `json:"field,omitempty"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError detalle de un campo inválido.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

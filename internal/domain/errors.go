package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de aplicación (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Kind clasifica los errores del motor de comprobantes.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInvalidTransition   Kind = "invalid_transition"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindNumberingConflict   Kind = "numbering_conflict"
	KindFiscalAuthorization Kind = "fiscal_authorization"
)

// Sentinelas por tipo, para usar con errors.Is.
var (
	ErrValidation          = errors.New("validación fallida")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrNumberingConflict   = errors.New("conflicto de numeración")
	ErrFiscalAuthorization = errors.New("autorización fiscal rechazada")
)

var sentinelByKind = map[Kind]error{
	KindValidation:          ErrValidation,
	KindInvalidTransition:   ErrInvalidTransition,
	KindInsufficientStock:   ErrInsufficientStock,
	KindNumberingConflict:   ErrNumberingConflict,
	KindFiscalAuthorization: ErrFiscalAuthorization,
}

// FieldError es una entrada de la lista de validación {field, message}.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error es el error estructurado del motor: {kind, field?, message}.
// Details lleva la lista completa cuando hay más de un campo en falta.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Details []FieldError
	Err     error // causa (opcional)
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Field)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap expone la sentinela del tipo y la causa.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := sentinelByKind[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewValidationError crea un error de validación para un campo.
func NewValidationError(field, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: msg,
		Details: []FieldError{{Field: field, Message: msg}},
	}
}

// NewInvalidTransitionError crea un error de transición inválida.
func NewInvalidTransitionError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Field: "state", Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientStockError agrupa los artículos sin stock suficiente.
func NewInsufficientStockError(details []FieldError) *Error {
	e := &Error{Kind: KindInsufficientStock, Message: "stock insuficiente", Details: details}
	if len(details) > 0 {
		e.Field = details[0].Field
		e.Message = details[0].Message
	}
	return e
}

// NewNumberingConflictError se usa cuando el store detecta una numeración duplicada.
func NewNumberingConflictError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindNumberingConflict, Field: "sequenceNumber", Message: fmt.Sprintf(format, args...), Err: cause}
}

// NewFiscalAuthorizationError envuelve el rechazo (o la falla) del adaptador fiscal.
func NewFiscalAuthorizationError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindFiscalAuthorization, Field: "cae", Message: fmt.Sprintf(format, args...), Err: cause}
}

// ValidationErrors acumula errores de campo y los devuelve como un único *Error.
type ValidationErrors []FieldError

// Add agrega un error de campo.
func (v *ValidationErrors) Add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err devuelve nil si no hay errores.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindValidation,
		Field:   v[0].Field,
		Message: v[0].Message,
		Details: append([]FieldError(nil), v...),
	}
}

// KindOf devuelve el Kind de err si es un *Error, o "" si no lo es.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

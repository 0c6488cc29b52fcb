package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comprobantes-api/internal/application/dto"
	"github.com/jhoicas/comprobantes-api/internal/domain"
)

var statusByKind = map[domain.Kind]int{
	domain.KindValidation:          fiber.StatusUnprocessableEntity,
	domain.KindInvalidTransition:   fiber.StatusConflict,
	domain.KindInsufficientStock:   fiber.StatusConflict,
	domain.KindNumberingConflict:   fiber.StatusConflict,
	domain.KindFiscalAuthorization: fiber.StatusBadGateway,
}

// errorResponse traduce un error del motor a status + cuerpo {kind, field, message, details}.
func errorResponse(err error) (int, dto.ErrorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := statusByKind[de.Kind]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		body := dto.ErrorResponse{Kind: string(de.Kind), Field: de.Field, Message: de.Message}
		for _, d := range de.Details {
			body.Details = append(body.Details, dto.FieldError{Field: d.Field, Message: d.Message})
		}
		return status, body
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Kind: "not_found", Message: "comprobante no encontrado"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Kind: "conflict", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Kind: string(domain.KindValidation), Message: err.Error()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Kind: "internal", Message: err.Error()}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Kind:    string(domain.KindValidation),
		Field:   "body",
		Message: "cuerpo inválido",
	})
}

// fiscalPending responde 202 con el comprobante emitido cuando el CAE no se obtuvo.
// El cliente reintenta con POST /api/documents/:id/authorization.
type fiscalPending struct {
	Document *dto.DocumentResponse `json:"document"`
	Error    dto.ErrorResponse     `json:"error"`
}

// respond escribe el resultado de una operación que devuelve comprobante.
func respond(c *fiber.Ctx, status int, doc *dto.DocumentResponse, err error) error {
	if err != nil {
		if doc != nil && errors.Is(err, domain.ErrFiscalAuthorization) {
			_, body := errorResponse(err)
			return c.Status(fiber.StatusAccepted).JSON(fiscalPending{Document: doc, Error: body})
		}
		return writeError(c, err)
	}
	return c.Status(status).JSON(doc)
}

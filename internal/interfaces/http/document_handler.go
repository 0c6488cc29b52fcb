package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comprobantes-api/internal/application/billing"
	"github.com/jhoicas/comprobantes-api/internal/application/dto"
	"github.com/jhoicas/comprobantes-api/internal/domain"
)

// DocumentHandler expone el ciclo de vida de los comprobantes.
type DocumentHandler struct {
	uc *billing.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *billing.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Create da de alta un comprobante. Los tipos no diferibles se emiten en el acto.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.Create(c.Context(), in)
	return respond(c, fiber.StatusCreated, doc, err)
}

// GetByID devuelve el comprobante con totales recalculados.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Context(), c.Params("id"))
	return respond(c, fiber.StatusOK, doc, err)
}

// AddLine agrega una línea a la orden.
// POST /api/documents/:id/lines
func (h *DocumentHandler) AddLine(c *fiber.Ctx) error {
	var in dto.DocumentLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.AddLine(c.Context(), c.Params("id"), in)
	return respond(c, fiber.StatusOK, doc, err)
}

// UpdateLine modifica la línea en la posición indicada.
// PATCH /api/documents/:id/lines/:index
func (h *DocumentHandler) UpdateLine(c *fiber.Ctx) error {
	index, err := lineIndex(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.UpdateLine(c.Context(), c.Params("id"), index, in)
	return respond(c, fiber.StatusOK, doc, err)
}

// RemoveLine quita la línea en la posición indicada.
// DELETE /api/documents/:id/lines/:index
func (h *DocumentHandler) RemoveLine(c *fiber.Ctx) error {
	index, err := lineIndex(c)
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.uc.RemoveLine(c.Context(), c.Params("id"), index)
	return respond(c, fiber.StatusOK, doc, err)
}

// SetExemption activa o desactiva la exención de IVA.
// PUT /api/documents/:id/exemption
func (h *DocumentHandler) SetExemption(c *fiber.Ctx) error {
	var in dto.SetExemptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.SetExemption(c.Context(), c.Params("id"), in.Exempt)
	return respond(c, fiber.StatusOK, doc, err)
}

// SetTributes reemplaza los tributos adicionales.
// PUT /api/documents/:id/tributes
func (h *DocumentHandler) SetTributes(c *fiber.Ctx) error {
	var in dto.SetTributesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.SetTributes(c.Context(), c.Params("id"), in.TributeIDs)
	return respond(c, fiber.StatusOK, doc, err)
}

// Transition aplica facturar o anular.
// POST /api/documents/:id/transitions
func (h *DocumentHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.Transition(c.Context(), c.Params("id"), in.Action)
	return respond(c, fiber.StatusOK, doc, err)
}

// RetryAuthorization reintenta el CAE de un comprobante emitido sin autorizar.
// POST /api/documents/:id/authorization
func (h *DocumentHandler) RetryAuthorization(c *fiber.Ctx) error {
	doc, err := h.uc.RetryAuthorization(c.Context(), c.Params("id"))
	return respond(c, fiber.StatusOK, doc, err)
}

// NextNumber consulta el próximo número de una clave (punto de venta, tipo) sin consumirlo.
// GET /api/sequences/next?sales_point_id=&voucher_type_id=
func (h *DocumentHandler) NextNumber(c *fiber.Ctx) error {
	var in dto.NextNumberRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.NextSequenceNumber(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func lineIndex(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return 0, domain.NewValidationError("index", "posición de línea inválida: %q", c.Params("index"))
	}
	return index, nil
}

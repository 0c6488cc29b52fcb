package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/comprobantes-api/internal/application/inventory"
)

// InventoryHandler consultas del libro de inventario (solo lectura: el stock se mueve por comprobantes).
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Movements lista los movimientos generados por un comprobante.
// GET /api/documents/:id/movements
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	list, err := h.uc.Movements(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Stock devuelve la existencia actual de un artículo.
// GET /api/articles/:id/stock
func (h *InventoryHandler) Stock(c *fiber.Ctx) error {
	st, err := h.uc.Stock(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/comprobantes-api/internal/application/billing"
	"github.com/jhoicas/comprobantes-api/internal/application/inventory"
	"github.com/jhoicas/comprobantes-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DocumentUC *billing.DocumentUseCase
	LedgerUC   *inventory.LedgerUseCase
	Log        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log != nil {
		app.Use(RequestLogger(deps.Log))
	}
	api := app.Group("/api")

	documents := api.Group("/documents")
	h := NewDocumentHandler(deps.DocumentUC)
	documents.Post("/", h.Create)
	documents.Get("/:id", h.GetByID)
	documents.Post("/:id/lines", h.AddLine)
	documents.Patch("/:id/lines/:index", h.UpdateLine)
	documents.Delete("/:id/lines/:index", h.RemoveLine)
	documents.Put("/:id/exemption", h.SetExemption)
	documents.Put("/:id/tributes", h.SetTributes)
	documents.Post("/:id/transitions", h.Transition)
	documents.Post("/:id/authorization", h.RetryAuthorization)

	api.Get("/sequences/next", h.NextNumber)

	if deps.LedgerUC != nil {
		inv := NewInventoryHandler(deps.LedgerUC)
		documents.Get("/:id/movements", inv.Movements)
		api.Get("/articles/:id/stock", inv.Stock)
	}
}

// RequestLogger registra método, ruta, status y duración de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var ev *zerolog.Event
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else {
			ev = log.Info()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http")
		return err
	}
}

package repository

import (
	"context"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para comprobantes (cabecera, líneas y tributos).
type DocumentRepository interface {
	// Create persiste un comprobante nuevo. Si la clave (punto de venta, tipo, número) ya existe
	// devuelve un error de conflicto de numeración.
	Create(ctx context.Context, doc *entity.Document) error
	// Update reemplaza estado, líneas, tributos, totales y snapshot de exención.
	// No toca CAE ni su vencimiento (ver SaveAuthorization).
	Update(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate lee el comprobante bloqueándolo hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// SaveAuthorization escribe el CAE solo si todavía no tiene uno (append-only).
	SaveAuthorization(ctx context.Context, id string, auth entity.FiscalAuthorization) error
}

package repository

import (
	"context"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// ArticleRepository lectura de artículos.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Article, error)
}

// VoucherTypeRepository lectura de tipos de comprobante.
type VoucherTypeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.VoucherType, error)
}

// TributeRepository lectura de tributos.
type TributeRepository interface {
	// GetByIDs devuelve los tributos en el orden pedido; los inexistentes se omiten.
	GetByIDs(ctx context.Context, ids []string) ([]entity.Tribute, error)
}

// SalesPointRepository lectura de puntos de venta.
type SalesPointRepository interface {
	// GetActiveByID devuelve nil, nil si el punto de venta no existe o está inactivo.
	GetActiveByID(ctx context.Context, id string) (*entity.SalesPoint, error)
}

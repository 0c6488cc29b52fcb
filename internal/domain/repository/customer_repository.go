package repository

import (
	"context"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// CustomerRepository lectura de clientes y proveedores. El alta/edición es externa.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}

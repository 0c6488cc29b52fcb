package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Article artículo del inventario.
type Article struct {
	ID             string
	Code           string
	Description    string
	Price          decimal.Decimal // precio de lista (IVA incluido)
	DefaultVATRate decimal.Decimal // porcentaje: 0, 10.5, 21, 27
	CurrentStock   decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

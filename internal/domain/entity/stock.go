package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock existencia actual de un artículo (tabla materializada, se bloquea con SELECT FOR UPDATE).
type Stock struct {
	ArticleID string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

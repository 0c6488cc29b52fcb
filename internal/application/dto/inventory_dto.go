package dto

import "github.com/shopspring/decimal"

// MovementResponse movimiento de inventario generado por un comprobante.
type MovementResponse struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	ArticleID  string          `json:"article_id"`
	Type       string          `json:"type"`   // IN | OUT
	Reason     string          `json:"reason"` // Commit | Annul
	Quantity   decimal.Decimal `json:"quantity"`
	Date       string          `json:"date"`
}

// StockResponse existencia actual de un artículo.
type StockResponse struct {
	ArticleID string          `json:"article_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

package entity

import "github.com/shopspring/decimal"

// DocumentLine línea de un comprobante.
// Subtotal, VATAmount y TaxableAmount son derivados: solo los escribe el calculador de líneas.
type DocumentLine struct {
	ArticleID     string
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	VATRate       decimal.Decimal // porcentaje 0–100 (21 = 21 %)
	Subtotal      decimal.Decimal
	VATAmount     decimal.Decimal
	TaxableAmount decimal.Decimal
}

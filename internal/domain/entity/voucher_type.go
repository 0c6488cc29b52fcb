package entity

// StockEffect efecto del comprobante emitido sobre el inventario.
type StockEffect string

const (
	StockNone      StockEffect = "None"
	StockDecrement StockEffect = "Decrement" // ventas: salida de mercadería
	StockIncrement StockEffect = "Increment" // compras: ingreso de mercadería
)

// VoucherType tipo de comprobante configurado (Factura A/B/C, tique, remito, orden de compra...).
type VoucherType struct {
	ID         string
	Code       int // código AFIP (1 = Factura A, 6 = Factura B, 11 = Factura C, 83 = Tique)
	Name       string
	Flow       Flow
	IssuedKind DocumentKind // Ticket o Invoice
	Stock      StockEffect
	Annullable bool
	Deferrable bool // si admite pasar por Orden antes de facturar
}

// DecrementsStock indica si la emisión descuenta stock (y por lo tanto aplica el control de stock).
func (v VoucherType) DecrementsStock() bool {
	return v.Stock == StockDecrement
}

// MovesStock indica si la emisión o anulación generan movimientos de inventario.
func (v VoucherType) MovesStock() bool {
	return v.Stock == StockDecrement || v.Stock == StockIncrement
}

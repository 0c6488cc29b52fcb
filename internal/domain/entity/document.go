package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de comprobante.
type DocumentKind string

const (
	KindOrder   DocumentKind = "Order"   // orden / pedido (pre-fiscal)
	KindTicket  DocumentKind = "Ticket"  // tique
	KindInvoice DocumentKind = "Invoice" // factura
)

// DocumentState estado del comprobante. Conjunto cerrado; Annulled es terminal.
type DocumentState string

const (
	StateOrder    DocumentState = "Order"
	StateTicket   DocumentState = "Ticket"
	StateInvoice  DocumentState = "Invoice"
	StateAnnulled DocumentState = "Annulled"
)

// Issued indica si el estado corresponde a un comprobante fiscal emitido.
func (s DocumentState) Issued() bool {
	return s == StateTicket || s == StateInvoice
}

// Flow distingue ventas de compras.
type Flow string

const (
	FlowSale     Flow = "Sale"
	FlowPurchase Flow = "Purchase"
)

// Document cabecera + líneas de un comprobante de venta o compra.
// CustomerRef es el cliente en ventas y el proveedor en compras.
// Totals se recalcula siempre desde Lines y Tributes; nunca es entrada autoritativa.
type Document struct {
	ID                string
	Flow              Flow
	Kind              DocumentKind
	State             DocumentState
	CustomerRef       string
	CustomerExempt    bool
	VoucherTypeID     string
	SalesPointID      string
	SequenceNumber    int64
	IssuedAt          time.Time
	CAE               string
	CAEExpiresAt      time.Time
	Lines             []DocumentLine
	Tributes          []Tribute
	Totals            Totals
	LinkedDocumentRef string
	Reversal          bool // true en el comprobante compensatorio de una anulación
	Exemption         ExemptionSnapshot
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone devuelve una copia profunda; el motor nunca muta el documento recibido.
func (d Document) Clone() Document {
	out := d
	out.Lines = append([]DocumentLine(nil), d.Lines...)
	out.Tributes = append([]Tribute(nil), d.Tributes...)
	out.Totals = d.Totals.clone()
	out.Exemption = d.Exemption.Clone()
	return out
}

// Authorized indica si el comprobante ya tiene CAE.
func (d Document) Authorized() bool {
	return d.CAE != ""
}

// Totals totales calculados del comprobante (sin redondeo interno).
type Totals struct {
	Subtotal      decimal.Decimal
	TaxableTotal  decimal.Decimal
	VATTotal      decimal.Decimal
	VATBreakdown  []VATGroup
	Tributes      []TributeAmount
	TributesTotal decimal.Decimal
	Total         decimal.Decimal
}

// VATGroup IVA agrupado por alícuota (AFIP informa un registro por alícuota).
type VATGroup struct {
	Rate   decimal.Decimal
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// TributeAmount importe calculado de un tributo seleccionado.
type TributeAmount struct {
	TributeID string
	Base      decimal.Decimal
	Aliquota  decimal.Decimal
	Amount    decimal.Decimal
}

// CurrencyPlaces precisión de moneda para presentación.
const CurrencyPlaces = 2

// Rounded devuelve la copia para presentación, redondeada a centavos.
func (t Totals) Rounded() Totals {
	r := func(d decimal.Decimal) decimal.Decimal { return d.Round(CurrencyPlaces) }
	out := Totals{
		Subtotal:      r(t.Subtotal),
		TaxableTotal:  r(t.TaxableTotal),
		VATTotal:      r(t.VATTotal),
		TributesTotal: r(t.TributesTotal),
		Total:         r(t.Total),
	}
	for _, g := range t.VATBreakdown {
		out.VATBreakdown = append(out.VATBreakdown, VATGroup{Rate: g.Rate, Base: r(g.Base), Amount: r(g.Amount)})
	}
	for _, ta := range t.Tributes {
		out.Tributes = append(out.Tributes, TributeAmount{TributeID: ta.TributeID, Base: r(ta.Base), Aliquota: ta.Aliquota, Amount: r(ta.Amount)})
	}
	return out
}

func (t Totals) clone() Totals {
	out := t
	out.VATBreakdown = append([]VATGroup(nil), t.VATBreakdown...)
	out.Tributes = append([]TributeAmount(nil), t.Tributes...)
	return out
}

// ExemptionSnapshot alícuota original por artículo, capturada al marcar exento al cliente.
type ExemptionSnapshot map[string]decimal.Decimal

// Clone copia el snapshot (nil se conserva como nil).
func (s ExemptionSnapshot) Clone() ExemptionSnapshot {
	if s == nil {
		return nil
	}
	out := make(ExemptionSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

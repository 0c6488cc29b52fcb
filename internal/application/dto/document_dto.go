package dto

import "github.com/shopspring/decimal"

// CreateDocumentRequest body para POST /api/documents.
// Sin líneas el comprobante nace como orden vacía (solo para tipos diferibles).
type CreateDocumentRequest struct {
	VoucherTypeID string                `json:"voucher_type_id"`
	SalesPointID  string                `json:"sales_point_id"`
	CustomerID    string                `json:"customer_id"`
	Lines         []DocumentLineRequest `json:"lines"`
	TributeIDs    []string              `json:"tribute_ids,omitempty"`
}

// DocumentLineRequest línea al crear o agregar. UnitPrice y VATRate nil toman los valores del artículo.
type DocumentLineRequest struct {
	ArticleID   string           `json:"article_id"`
	Description string           `json:"description,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
}

// UpdateLineRequest body para PATCH /api/documents/:id/lines/:index.
type UpdateLineRequest struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
}

// SetExemptionRequest body para PUT /api/documents/:id/exemption.
type SetExemptionRequest struct {
	Exempt bool `json:"exempt"`
}

// SetTributesRequest body para PUT /api/documents/:id/tributes.
type SetTributesRequest struct {
	TributeIDs []string `json:"tribute_ids"`
}

// TransitionRequest body para POST /api/documents/:id/transitions.
// Acepta "facturar"/"anular" y sus variantes (mayúsculas, sin tilde, en inglés).
type TransitionRequest struct {
	Action string `json:"action"`
}

// NextNumberRequest query de GET /api/sequences/next.
type NextNumberRequest struct {
	SalesPointID  string `query:"sales_point_id"`
	VoucherTypeID string `query:"voucher_type_id"`
}

// NextNumberResponse número que recibiría la próxima emisión.
type NextNumberResponse struct {
	SalesPointID   string `json:"sales_point_id"`
	VoucherTypeID  string `json:"voucher_type_id"`
	SequenceNumber int64  `json:"sequence_number"`
}

// DocumentResponse comprobante con líneas y totales a 2 decimales.
type DocumentResponse struct {
	ID                string                 `json:"id"`
	Flow              string                 `json:"flow"`
	Kind              string                 `json:"kind"`
	State             string                 `json:"state"`
	CustomerID        string                 `json:"customer_id"`
	CustomerExempt    bool                   `json:"customer_exempt"`
	VoucherTypeID     string                 `json:"voucher_type_id"`
	SalesPointID      string                 `json:"sales_point_id"`
	SequenceNumber    int64                  `json:"sequence_number,omitempty"`
	IssuedAt          string                 `json:"issued_at,omitempty"`
	CAE               string                 `json:"cae,omitempty"`
	CAEExpiresAt      string                 `json:"cae_expires_at,omitempty"`
	LinkedDocumentID  string                 `json:"linked_document_id,omitempty"`
	Reversal          bool                   `json:"reversal"`
	Lines             []DocumentLineResponse `json:"lines"`
	Tributes          []TributeResponse      `json:"tributes"`
	Totals            TotalsResponse         `json:"totals"`
	Compensating      *DocumentResponse      `json:"compensating,omitempty"`
	AuthorizationNote string                 `json:"authorization_note,omitempty"`
}

// DocumentLineResponse línea del comprobante.
type DocumentLineResponse struct {
	ArticleID     string          `json:"article_id"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
}

// TributeResponse tributo seleccionado.
type TributeResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	BaseCalculo string          `json:"base_calculo"`
	Aliquota    decimal.Decimal `json:"aliquota"`
}

// TotalsResponse totales del comprobante.
type TotalsResponse struct {
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TaxableTotal  decimal.Decimal       `json:"taxable_total"`
	VATTotal      decimal.Decimal       `json:"vat_total"`
	VATBreakdown  []VATGroupResponse    `json:"vat_breakdown"`
	Tributes      []TributeAmountResult `json:"tributes"`
	TributesTotal decimal.Decimal       `json:"tributes_total"`
	Total         decimal.Decimal       `json:"total"`
}

// VATGroupResponse IVA agrupado por alícuota.
type VATGroupResponse struct {
	Rate   decimal.Decimal `json:"rate"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
}

// TributeAmountResult importe calculado de un tributo.
type TributeAmountResult struct {
	TributeID string          `json:"tribute_id"`
	Base      decimal.Decimal `json:"base"`
	Aliquota  decimal.Decimal `json:"aliquota"`
	Amount    decimal.Decimal `json:"amount"`
}

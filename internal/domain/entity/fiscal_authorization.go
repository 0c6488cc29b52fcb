package entity

import "time"

// FiscalAuthorizationRequest pedido de CAE al adaptador fiscal.
type FiscalAuthorizationRequest struct {
	DocumentID     string
	Flow           Flow
	SalesPointID   string
	VoucherTypeID  string
	VoucherCode    int
	SequenceNumber int64
	IssuedAt       time.Time
	CustomerRef    string
	CustomerTaxID  string // lo completa la aplicación desde el padrón de clientes
	Totals         Totals
	Lines          []DocumentLine
}

// FiscalAuthorization respuesta de la autoridad fiscal.
type FiscalAuthorization struct {
	CAE       string
	ExpiresAt time.Time
}

// Package afip contiene catálogos y validaciones de las tablas paramétricas de AFIP
// (Factura Electrónica, WSFEv1) que usan el motor y los adaptadores.
package afip

import "github.com/shopspring/decimal"

// Tipos de documento del receptor (FEParamGetTiposDoc).
const (
	DocTypeCUIT         = 80
	DocTypeCUIL         = 86
	DocTypeDNI          = 96
	DocTypeUnidentified = 99 // consumidor final sin identificar
)

// Códigos de comprobante clase A (FEParamGetTiposCbte): el receptor debe tener CUIT.
var classAVoucherCodes = map[int]bool{
	1:   true, // Factura A
	2:   true, // Nota de Débito A
	3:   true, // Nota de Crédito A
	4:   true, // Recibo A
	5:   true, // Nota de Venta al contado A
	201: true, // Factura de Crédito electrónica MiPyMEs A
	202: true, // Nota de Débito electrónica MiPyMEs A
	203: true, // Nota de Crédito electrónica MiPyMEs A
}

// RequiresCUIT indica si el código de comprobante exige receptor identificado con CUIT.
func RequiresCUIT(voucherCode int) bool {
	return classAVoucherCodes[voucherCode]
}

// Alícuotas de IVA (FEParamGetTiposIva): porcentaje → Id.
var vatAliquotIDs = []struct {
	rate decimal.Decimal
	id   int
}{
	{decimal.Zero, 3},
	{decimal.RequireFromString("10.5"), 4},
	{decimal.NewFromInt(21), 5},
	{decimal.NewFromInt(27), 6},
	{decimal.NewFromInt(5), 8},
	{decimal.RequireFromString("2.5"), 9},
}

// VATAliquotID devuelve el Id AFIP de la alícuota; false si el porcentaje no está en la tabla.
func VATAliquotID(rate decimal.Decimal) (int, bool) {
	for _, a := range vatAliquotIDs {
		if a.rate.Equal(rate) {
			return a.id, true
		}
	}
	return 0, false
}

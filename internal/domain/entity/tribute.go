package entity

import "github.com/shopspring/decimal"

// TributeBase base de cálculo de un tributo.
type TributeBase string

const (
	TributeBaseTaxable TributeBase = "Taxable" // neto gravado
	TributeBaseGross   TributeBase = "Gross"   // total bruto (IVA incluido)
)

// Tribute percepción / impuesto adicional al IVA (IIBB, impuestos internos, etc.).
type Tribute struct {
	ID          string
	Description string
	Base        TributeBase
	Aliquota    decimal.Decimal // porcentaje
}

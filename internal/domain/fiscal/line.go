// Package fiscal es el motor de comprobantes: cálculo de líneas, exención de IVA,
// totales con tributos, máquina de estados y numeración/CAE.
// Todas las funciones son puras: reciben un documento y devuelven uno nuevo, sin I/O.
package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// RecomputeLine recalcula subtotal, IVA y neto gravado de una línea.
// override reemplaza la alícuota de la línea (se usa solo el primer valor).
//
//	subtotal = cantidad × precio unitario (precio con IVA incluido)
//	IVA      = subtotal × alícuota / (100 + alícuota)
//	neto     = subtotal − IVA
//
// No redondea: el redondeo a centavos es responsabilidad de la presentación.
func RecomputeLine(line entity.DocumentLine, override ...decimal.Decimal) (entity.DocumentLine, error) {
	return recomputeLine("", line, override...)
}

func recomputeLine(prefix string, line entity.DocumentLine, override ...decimal.Decimal) (entity.DocumentLine, error) {
	if len(override) > 0 {
		line.VATRate = override[0]
	}
	var errs domain.ValidationErrors
	validateLine(&errs, prefix, line)
	if err := errs.Err(); err != nil {
		return entity.DocumentLine{}, err
	}

	subtotal := line.Quantity.Mul(line.UnitPrice)
	vat := decimal.Zero
	if !line.VATRate.IsZero() {
		vat = subtotal.Mul(line.VATRate).Div(hundred.Add(line.VATRate))
	}
	line.Subtotal = subtotal
	line.VATAmount = vat
	line.TaxableAmount = subtotal.Sub(vat)
	return line, nil
}

func validateLine(errs *domain.ValidationErrors, prefix string, line entity.DocumentLine) {
	if line.Quantity.IsNegative() {
		errs.Add(prefix+"quantity", "la cantidad no puede ser negativa (%s)", line.Quantity)
	}
	if line.UnitPrice.IsNegative() {
		errs.Add(prefix+"unitPrice", "el precio unitario no puede ser negativo (%s)", line.UnitPrice)
	}
	if line.VATRate.IsNegative() || line.VATRate.GreaterThan(hundred) {
		errs.Add(prefix+"vatRate", "la alícuota de IVA debe estar entre 0 y 100 (%s)", line.VATRate)
	}
}

func linePrefix(i int) string {
	return fmt.Sprintf("lines[%d].", i)
}

package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// SetExemption propaga la condición de exento del cliente a todas las líneas.
//
// false→true: guarda la alícuota actual de cada artículo que todavía no esté en el snapshot
// y fuerza 0 %. true→false: restaura la alícuota de cada línea cuyo artículo esté en el
// snapshot y lo vacía. Las líneas agregadas mientras el documento era exento no tienen
// snapshot y quedan en 0 %. Invocar con el mismo valor no hace nada.
func SetExemption(doc entity.Document, isExempt bool) (entity.Document, error) {
	if err := ensureEditable(doc); err != nil {
		return entity.Document{}, err
	}
	out := doc.Clone()
	if doc.CustomerExempt == isExempt {
		return out, nil
	}

	if isExempt {
		if out.Exemption == nil {
			out.Exemption = entity.ExemptionSnapshot{}
		}
		for i, l := range out.Lines {
			if _, ok := out.Exemption[l.ArticleID]; !ok {
				out.Exemption[l.ArticleID] = l.VATRate
			}
			nl, err := recomputeLine(linePrefix(i), l, decimal.Zero)
			if err != nil {
				return entity.Document{}, err
			}
			out.Lines[i] = nl
		}
	} else {
		for i, l := range out.Lines {
			rate, ok := out.Exemption[l.ArticleID]
			if !ok {
				continue
			}
			nl, err := recomputeLine(linePrefix(i), l, rate)
			if err != nil {
				return entity.Document{}, err
			}
			out.Lines[i] = nl
		}
		out.Exemption = nil
	}

	out.CustomerExempt = isExempt
	out.Totals = Aggregate(out.Lines, out.Tributes)
	return out, nil
}

// ensureEditable: solo las órdenes admiten cambios de líneas, tributos o exención.
func ensureEditable(doc entity.Document) error {
	if doc.Reversal {
		return domain.NewInvalidTransitionError("el comprobante compensatorio %s no se puede modificar", doc.ID)
	}
	if doc.State != entity.StateOrder {
		return domain.NewInvalidTransitionError("el comprobante en estado %s no se puede modificar", doc.State)
	}
	return nil
}

package fiscal

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// Aggregate suma las líneas y los tributos seleccionados. Siempre recalcula todo (O(n)).
//
// La base de cada tributo se declara a la autoridad con precisión de moneda, por eso se
// redondea a centavos antes de aplicar la alícuota; el importe resultante no se redondea.
func Aggregate(lines []entity.DocumentLine, tributes []entity.Tribute) entity.Totals {
	var t entity.Totals
	groups := make(map[string]*entity.VATGroup)
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Subtotal)
		t.TaxableTotal = t.TaxableTotal.Add(l.TaxableAmount)
		t.VATTotal = t.VATTotal.Add(l.VATAmount)

		key := l.VATRate.String()
		g, ok := groups[key]
		if !ok {
			g = &entity.VATGroup{Rate: l.VATRate}
			groups[key] = g
		}
		g.Base = g.Base.Add(l.TaxableAmount)
		g.Amount = g.Amount.Add(l.VATAmount)
	}
	for _, g := range groups {
		t.VATBreakdown = append(t.VATBreakdown, *g)
	}
	sort.Slice(t.VATBreakdown, func(i, j int) bool {
		return t.VATBreakdown[i].Rate.LessThan(t.VATBreakdown[j].Rate)
	})

	for _, trib := range tributes {
		base := t.TaxableTotal
		if trib.Base == entity.TributeBaseGross {
			base = t.Subtotal
		}
		base = base.Round(entity.CurrencyPlaces)
		amount := base.Mul(trib.Aliquota).Div(hundred)
		t.Tributes = append(t.Tributes, entity.TributeAmount{
			TributeID: trib.ID,
			Base:      base,
			Aliquota:  trib.Aliquota,
			Amount:    amount,
		})
		t.TributesTotal = t.TributesTotal.Add(amount)
	}
	t.Total = t.Subtotal.Add(t.TributesTotal)
	return t
}

// SumSubtotals Σ subtotal de las líneas.
func SumSubtotals(lines []entity.DocumentLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}

package fiscal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
)

func TestAggregate_SinTributosTotalIgualSumaSubtotales(t *testing.T) {
	lines := []entity.DocumentLine{
		line("A", "2", "150.25", "21"),
		line("B", "1", "80", "10.5"),
		line("C", "3", "9.99", "0"),
	}
	totals := fiscal.Aggregate(lines, nil)
	assert.True(t, totals.Total.Equal(fiscal.SumSubtotals(lines)))
	assert.True(t, totals.TributesTotal.IsZero())
	assert.Empty(t, totals.Tributes)
}

func TestAggregate_SinLineas(t *testing.T) {
	totals := fiscal.Aggregate(nil, nil)
	assert.True(t, totals.Total.IsZero())
	assert.Empty(t, totals.VATBreakdown)
}

// TestAggregate_TributoSobreNetoGravado total 1000, neto 826.45, tributo 10 % → 82.65.
func TestAggregate_TributoSobreNetoGravado(t *testing.T) {
	lines := []entity.DocumentLine{line("A", "10", "100", "21")}
	tributes := []entity.Tribute{{ID: "IIBB", Base: entity.TributeBaseTaxable, Aliquota: d("10")}}

	totals := fiscal.Aggregate(lines, tributes)
	require.Len(t, totals.Tributes, 1)
	assert.Equal(t, "826.45", totals.Tributes[0].Base.StringFixed(2))

	rounded := totals.Rounded()
	assert.Equal(t, "82.65", rounded.Tributes[0].Amount.StringFixed(2))
	assert.Equal(t, "1082.65", rounded.Total.StringFixed(2))
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TributesTotal)))
}

func TestAggregate_TributoSobreBruto(t *testing.T) {
	lines := []entity.DocumentLine{line("A", "10", "100", "21")}
	tributes := []entity.Tribute{{ID: "IMP-INT", Base: entity.TributeBaseGross, Aliquota: d("3")}}

	totals := fiscal.Aggregate(lines, tributes)
	assert.Equal(t, "30.00", totals.TributesTotal.StringFixed(2))
	assert.Equal(t, "1030.00", totals.Total.StringFixed(2))
}

func TestAggregate_DesgloseIVAPorAlicuota(t *testing.T) {
	lines := []entity.DocumentLine{
		line("A", "1", "121", "21"),
		line("B", "1", "110.5", "10.5"),
		line("C", "1", "242", "21.00"),
	}
	totals := fiscal.Aggregate(lines, nil)
	require.Len(t, totals.VATBreakdown, 2)
	assert.Equal(t, "10.5", totals.VATBreakdown[0].Rate.String())
	assert.Equal(t, "10.50", totals.VATBreakdown[0].Amount.StringFixed(2))
	assert.Equal(t, "21", totals.VATBreakdown[1].Rate.String())
	assert.Equal(t, "63.00", totals.VATBreakdown[1].Amount.StringFixed(2))
	assert.Equal(t, "300.00", totals.VATBreakdown[1].Base.StringFixed(2))
}

package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
)

// TestRecomputeLine_Ejemplo21 10 × 100 al 21 % (precio con IVA incluido).
func TestRecomputeLine_Ejemplo21(t *testing.T) {
	l, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: "A", Quantity: d("10"), UnitPrice: d("100"), VATRate: d("21"),
	})
	require.NoError(t, err)

	assert.Equal(t, "1000.00", l.Subtotal.StringFixed(2))
	assert.Equal(t, "173.55", l.VATAmount.StringFixed(2))
	assert.Equal(t, "826.45", l.TaxableAmount.StringFixed(2))
}

func TestRecomputeLine_NetoMasIVAIgualSubtotal(t *testing.T) {
	cases := []struct{ qty, price, rate string }{
		{"1", "0.01", "21"},
		{"3", "33.33", "10.5"},
		{"7.5", "19.99", "27"},
		{"0.333", "1234.567", "21"},
		{"12", "0", "21"},
		{"5", "99.90", "2.5"},
	}
	tolerance := d("0.000000001")
	for _, tc := range cases {
		l, err := fiscal.RecomputeLine(entity.DocumentLine{
			ArticleID: "A", Quantity: d(tc.qty), UnitPrice: d(tc.price), VATRate: d(tc.rate),
		})
		require.NoError(t, err)
		diff := l.VATAmount.Add(l.TaxableAmount).Sub(l.Subtotal).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "%+v: diferencia %s", tc, diff)
		assert.True(t, l.Subtotal.Equal(d(tc.qty).Mul(d(tc.price))), "%+v", tc)
	}
}

func TestRecomputeLine_AlicuotaCeroSinIVA(t *testing.T) {
	l, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: "A", Quantity: d("4"), UnitPrice: d("25.50"), VATRate: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, l.VATAmount.IsZero())
	assert.True(t, l.TaxableAmount.Equal(l.Subtotal))
}

func TestRecomputeLine_OverrideReemplazaAlicuota(t *testing.T) {
	base := line("A", "1", "121", "21")
	l, err := fiscal.RecomputeLine(base, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, l.VATRate.IsZero())
	assert.True(t, l.VATAmount.IsZero())
	// la línea original no cambia
	assert.Equal(t, "21", base.VATRate.String())
}

func TestRecomputeLine_RechazaNegativos(t *testing.T) {
	_, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: "A", Quantity: d("-1"), UnitPrice: d("-5"), VATRate: d("21"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindValidation, de.Kind)
	assert.Equal(t, "quantity", de.Field)
	require.Len(t, de.Details, 2)
	assert.Equal(t, "unitPrice", de.Details[1].Field)
}

func TestRecomputeLine_AlicuotaFueraDeRango(t *testing.T) {
	_, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: "A", Quantity: d("1"), UnitPrice: d("1"), VATRate: d("101"),
	})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "vatRate", de.Field)
}

func TestRecomputeLine_CantidadCeroEnBorrador(t *testing.T) {
	l, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: "A", Quantity: decimal.Zero, UnitPrice: d("10"), VATRate: d("21"),
	})
	require.NoError(t, err)
	assert.True(t, l.Subtotal.IsZero())
}

// TestRecomputeLine_SinDeriva muchas líneas de centavos no acumulan error de redondeo.
func TestRecomputeLine_SinDeriva(t *testing.T) {
	var lines []entity.DocumentLine
	for i := 0; i < 1000; i++ {
		lines = append(lines, line("A", "1", "0.10", "21"))
	}
	totals := fiscal.Aggregate(lines, nil)
	assert.True(t, totals.Subtotal.Equal(d("100")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.VATTotal.Add(totals.TaxableTotal).Equal(totals.Subtotal))
}

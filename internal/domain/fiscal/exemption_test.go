package fiscal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
)

func TestSetExemption_IdaYVueltaRestauraAlicuotas(t *testing.T) {
	doc := orderWith(
		line("A", "1", "121", "21"),
		line("B", "2", "50", "10.5"),
		line("C", "1", "10", "27"),
	)

	exempt, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)
	assert.True(t, exempt.CustomerExempt)
	for _, l := range exempt.Lines {
		assert.True(t, l.VATRate.IsZero(), l.ArticleID)
		assert.True(t, l.VATAmount.IsZero(), l.ArticleID)
	}
	assert.Len(t, exempt.Exemption, 3)
	assert.True(t, exempt.Totals.VATTotal.IsZero())

	restored, err := fiscal.SetExemption(exempt, false)
	require.NoError(t, err)
	assert.False(t, restored.CustomerExempt)
	assert.Nil(t, restored.Exemption)
	for i, l := range restored.Lines {
		assert.True(t, l.VATRate.Equal(doc.Lines[i].VATRate), l.ArticleID)
		assert.True(t, l.VATAmount.Equal(doc.Lines[i].VATAmount), l.ArticleID)
	}
	assert.True(t, restored.Totals.Total.Equal(doc.Totals.Total))
}

func TestSetExemption_Idempotente(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "21"))

	same, err := fiscal.SetExemption(doc, false)
	require.NoError(t, err)
	assert.Equal(t, doc.Lines, same.Lines)
	assert.Nil(t, same.Exemption)

	once, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)
	twice, err := fiscal.SetExemption(once, true)
	require.NoError(t, err)
	assert.Equal(t, once.Exemption, twice.Exemption)
	assert.Equal(t, once.Lines, twice.Lines)
}

func TestSetExemption_NoMutaElDocumentoRecibido(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "21"))
	_, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)
	assert.Equal(t, "21", doc.Lines[0].VATRate.String())
	assert.False(t, doc.CustomerExempt)
	assert.Nil(t, doc.Exemption)
}

// TestSetExemption_NoRecapturaArticulosConSnapshot un artículo ya presente en el snapshot
// conserva la alícuota guardada originalmente.
func TestSetExemption_NoRecapturaArticulosConSnapshot(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "21"), line("A", "1", "121", "27"))
	doc.Exemption = entity.ExemptionSnapshot{"A": d("10.5")}

	exempt, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)
	assert.Equal(t, "10.5", exempt.Exemption["A"].String())

	restored, err := fiscal.SetExemption(exempt, false)
	require.NoError(t, err)
	for _, l := range restored.Lines {
		assert.Equal(t, "10.5", l.VATRate.String())
	}
}

func TestSetExemption_LineasAgregadasSiendoExentoQuedanEnCero(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "21"))
	exempt, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)

	withB, err := fiscal.AddLine(exempt, entity.Article{
		ID: "B", Description: "Yerba", Price: d("100"), DefaultVATRate: d("21"),
	}, fiscal.LineInput{Quantity: d("2")})
	require.NoError(t, err)
	assert.True(t, withB.Lines[1].VATRate.IsZero())
	_, snap := withB.Exemption["B"]
	assert.False(t, snap, "las líneas nuevas no se registran en el snapshot")

	restored, err := fiscal.SetExemption(withB, false)
	require.NoError(t, err)
	assert.Equal(t, "21", restored.Lines[0].VATRate.String())
	assert.True(t, restored.Lines[1].VATRate.IsZero())
}

func TestSetExemption_ComprobanteEmitidoNoSeModifica(t *testing.T) {
	inv := issuedInvoice(t, line("A", "1", "121", "21"))
	_, err := fiscal.SetExemption(inv, true)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateLine_ExentoRechazaAlicuotaDistintaDeCero(t *testing.T) {
	exempt, err := fiscal.SetExemption(orderWith(line("A", "1", "121", "21")), true)
	require.NoError(t, err)
	rate := d("21")
	_, err = fiscal.UpdateLine(exempt, 0, fiscal.LineUpdate{VATRate: &rate})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "lines[0].vatRate", de.Field)
}

func TestEditing_RecalculaTotales(t *testing.T) {
	doc := orderWith(line("A", "1", "100", "21"))

	qty := d("3")
	doc, err := fiscal.UpdateLine(doc, 0, fiscal.LineUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "300.00", doc.Totals.Total.StringFixed(2))

	doc, err = fiscal.AddLine(doc, entity.Article{ID: "B", Price: d("50"), DefaultVATRate: d("10.5")}, fiscal.LineInput{Quantity: d("2")})
	require.NoError(t, err)
	assert.Equal(t, "400.00", doc.Totals.Total.StringFixed(2))

	doc, err = fiscal.SetTributes(doc, []entity.Tribute{{ID: "IIBB", Base: entity.TributeBaseGross, Aliquota: d("2")}})
	require.NoError(t, err)
	assert.Equal(t, "408.00", doc.Totals.Total.StringFixed(2))

	doc, err = fiscal.RemoveLine(doc, 0)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "102.00", doc.Totals.Total.StringFixed(2))
}

func TestSetTributes_Validacion(t *testing.T) {
	doc := orderWith(line("A", "1", "100", "21"))
	_, err := fiscal.SetTributes(doc, []entity.Tribute{
		{ID: "X", Base: "Neto", Aliquota: d("5")},
		{ID: "X", Base: entity.TributeBaseTaxable, Aliquota: d("-1")},
	})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Len(t, de.Details, 3)
	assert.Equal(t, "tributes[0].baseCalculo", de.Field)
}

func TestAddLine_RechazaCantidadNegativa(t *testing.T) {
	_, err := fiscal.AddLine(orderWith(), entity.Article{ID: "A", Price: d("1")}, fiscal.LineInput{Quantity: d("-2")})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "lines[0].quantity", de.Field)
}

func TestUpdateLine_MismoArticuloNoAdmiteAlicuotasDistintas(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "21"), line("A", "2", "121", "21"))

	rate := d("10.5")
	_, err := fiscal.UpdateLine(doc, 1, fiscal.LineUpdate{VATRate: &rate})
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "lines[1].vatRate", de.Field)

	same := d("21")
	_, err = fiscal.UpdateLine(doc, 1, fiscal.LineUpdate{VATRate: &same})
	require.NoError(t, err)
}

func TestAddLine_HeredaAlicuotaDeOtraLineaDelArticulo(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "10.5"))

	out, err := fiscal.AddLine(doc, entity.Article{ID: "A", Price: d("121"), DefaultVATRate: d("21")}, fiscal.LineInput{Quantity: d("1")})
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "10.5", out.Lines[1].VATRate.String())
}

func TestSetExemption_IdaYVueltaConDosLineasDelMismoArticulo(t *testing.T) {
	doc := orderWith(line("A", "1", "121", "10.5"))
	doc, err := fiscal.AddLine(doc, entity.Article{ID: "A", Price: d("50"), DefaultVATRate: d("21")}, fiscal.LineInput{Quantity: d("3")})
	require.NoError(t, err)
	before := []string{doc.Lines[0].VATRate.String(), doc.Lines[1].VATRate.String()}

	exempt, err := fiscal.SetExemption(doc, true)
	require.NoError(t, err)
	restored, err := fiscal.SetExemption(exempt, false)
	require.NoError(t, err)

	after := []string{restored.Lines[0].VATRate.String(), restored.Lines[1].VATRate.String()}
	assert.Equal(t, before, after)
	assert.True(t, restored.Totals.Total.Equal(doc.Totals.Total))
}

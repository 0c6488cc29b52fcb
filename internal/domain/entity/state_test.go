package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

func TestParseState_GrafiasHeredadas(t *testing.T) {
	cases := map[string]entity.DocumentState{
		"Orden":     entity.StateOrder,
		"orden":     entity.StateOrder,
		" ORDER ":   entity.StateOrder,
		"Facturado": entity.StateInvoice,
		"facturado": entity.StateInvoice,
		"Tique":     entity.StateTicket,
		"Anulado":   entity.StateAnnulled,
		"ANULADA":   entity.StateAnnulled,
		"Annulled":  entity.StateAnnulled,
	}
	for in, want := range cases {
		got, err := entity.ParseState(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseState_Desconocido(t *testing.T) {
	_, err := entity.ParseState("borrador")
	assert.Error(t, err)
}

func TestParseKind_RechazaAnulado(t *testing.T) {
	_, err := entity.ParseKind("anulado")
	assert.Error(t, err)

	k, err := entity.ParseKind("Factura")
	require.NoError(t, err)
	assert.Equal(t, entity.KindInvoice, k)
}

func TestParseAction_ConTildesYMayusculas(t *testing.T) {
	a, err := entity.ParseAction("FACTURAR")
	require.NoError(t, err)
	assert.Equal(t, entity.ActionFacturar, a)

	a, err = entity.ParseAction("Anular")
	require.NoError(t, err)
	assert.Equal(t, entity.ActionAnular, a)

	_, err = entity.ParseAction("borrar")
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleCatalog = `<?xml version="1.0" encoding="ISO-8859-1"?>
<catalogo>
  <puntosDeVenta><punto id="pv-1" numero="1" nombre="Casa central"/></puntosDeVenta>
  <tiposDeComprobante>
    <tipo id="FB" codigo="6" nombre="Factura B" circuito="sale" emite="Invoice" stock="Decrement" anulable="true" diferible="true"/>
  </tiposDeComprobante>
  <tributos><tributo id="IIBB" descripcion="Percepción IIBB" base="Taxable" alicuota="3,5"/></tributos>
  <clientes><cliente id="cf" nombre="Consumidor Final" condicionIva="CF"/></clientes>
  <articulos><articulo id="art-1" codigo="001" descripcion="Azúcar D'Orazio" precio="1000" iva="21" stock="50"/></articulos>
</catalogo>`

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestWriteSQL_CatalogoLatin1(t *testing.T) {
	cat, err := decodeCatalog(bytes.NewReader(latin1(t, sampleCatalog)))
	require.NoError(t, err)
	require.Len(t, cat.Articles, 1)
	assert.Equal(t, "Azúcar D'Orazio", cat.Articles[0].Description)

	var out strings.Builder
	require.NoError(t, writeSQL(&out, cat))
	sql := out.String()

	assert.Contains(t, sql, "VALUES ('pv-1', 1, 'Casa central', true)")
	assert.Contains(t, sql, "VALUES ('FB', 6, 'Factura B', 'Sale', 'Invoice', 'Decrement', true, true)")
	assert.Contains(t, sql, "'Percepción IIBB', 'Taxable', 3.5)")
	assert.Contains(t, sql, "'Azúcar D''Orazio', 1000, 21)")
	assert.Contains(t, sql, "INSERT INTO stock (article_id, quantity) VALUES ('art-1', 50) ON CONFLICT (article_id) DO NOTHING;")
}

func TestWriteSQL_ValoresInvalidos(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "stock desconocido",
			raw:  `<catalogo><tiposDeComprobante><tipo id="X" circuito="Sale" emite="Invoice" stock="Maybe"/></tiposDeComprobante></catalogo>`,
		},
		{
			name: "alícuota inválida",
			raw:  `<catalogo><tributos><tributo id="T" base="Gross" alicuota="diez"/></tributos></catalogo>`,
		},
		{
			name: "CUIT con verificador incorrecto",
			raw:  `<catalogo><clientes><cliente id="c" nombre="X" cuit="30712345678" condicionIva="1"/></clientes></catalogo>`,
		},
		{
			name: "punto fuera de rango",
			raw:  `<catalogo><puntosDeVenta><punto id="p" numero="0"/></puntosDeVenta></catalogo>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat, err := decodeCatalog(strings.NewReader(tc.raw))
			require.NoError(t, err)
			assert.Error(t, writeSQL(&strings.Builder{}, cat))
		})
	}
}

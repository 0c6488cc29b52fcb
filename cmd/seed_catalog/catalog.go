package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/pkg/afip"
)

// catalog es la forma del export XML. Los sistemas de gestión heredados lo emiten en ISO-8859-1.
type catalog struct {
	SalesPoints []struct {
		ID     string `xml:"id,attr"`
		Number int    `xml:"numero,attr"`
		Name   string `xml:"nombre,attr"`
		Active *bool  `xml:"activo,attr"`
	} `xml:"puntosDeVenta>punto"`
	VoucherTypes []struct {
		ID         string `xml:"id,attr"`
		Code       int    `xml:"codigo,attr"`
		Name       string `xml:"nombre,attr"`
		Flow       string `xml:"circuito,attr"`
		IssuedKind string `xml:"emite,attr"`
		Stock      string `xml:"stock,attr"`
		Annullable bool   `xml:"anulable,attr"`
		Deferrable bool   `xml:"diferible,attr"`
	} `xml:"tiposDeComprobante>tipo"`
	Tributes []struct {
		ID          string `xml:"id,attr"`
		Description string `xml:"descripcion,attr"`
		Base        string `xml:"base,attr"`
		Aliquota    string `xml:"alicuota,attr"`
	} `xml:"tributos>tributo"`
	Customers []struct {
		ID           string `xml:"id,attr"`
		Name         string `xml:"nombre,attr"`
		TaxID        string `xml:"cuit,attr"`
		VATCondition string `xml:"condicionIva,attr"`
		Exempt       bool   `xml:"exento,attr"`
	} `xml:"clientes>cliente"`
	Articles []struct {
		ID          string `xml:"id,attr"`
		Code        string `xml:"codigo,attr"`
		Description string `xml:"descripcion,attr"`
		Price       string `xml:"precio,attr"`
		VATRate     string `xml:"iva,attr"`
		Stock       string `xml:"stock,attr"`
	} `xml:"articulos>articulo"`
}

func decodeCatalog(r io.Reader) (*catalog, error) {
	var cat catalog
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") || strings.EqualFold(charset, "latin1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		if strings.EqualFold(charset, "windows-1252") {
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// writeSQL emite INSERTs idempotentes (ON CONFLICT DO UPDATE) en orden de dependencias.
func writeSQL(w io.Writer, cat *catalog) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de facturación\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	for _, sp := range cat.SalesPoints {
		if sp.Number < 1 || sp.Number > 99998 {
			return fmt.Errorf("punto de venta %s: número %d fuera de rango", sp.ID, sp.Number)
		}
		active := sp.Active == nil || *sp.Active
		fmt.Fprintf(&b, "INSERT INTO sales_points (id, number, name, is_active) VALUES ('%s', %d, '%s', %t)\n",
			escapeSQL(sp.ID), sp.Number, escapeSQL(sp.Name), active)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active;\n")
	}

	for _, vt := range cat.VoucherTypes {
		flow, err := oneOf("circuito", vt.Flow, string(entity.FlowSale), string(entity.FlowPurchase))
		if err != nil {
			return fmt.Errorf("tipo %s: %w", vt.ID, err)
		}
		kind, err := oneOf("emite", vt.IssuedKind, string(entity.KindTicket), string(entity.KindInvoice))
		if err != nil {
			return fmt.Errorf("tipo %s: %w", vt.ID, err)
		}
		stock, err := oneOf("stock", vt.Stock, string(entity.StockNone), string(entity.StockDecrement), string(entity.StockIncrement))
		if err != nil {
			return fmt.Errorf("tipo %s: %w", vt.ID, err)
		}
		fmt.Fprintf(&b, "INSERT INTO voucher_types (id, code, name, flow, issued_kind, stock_effect, annullable, deferrable)\n")
		fmt.Fprintf(&b, "VALUES ('%s', %d, '%s', '%s', '%s', '%s', %t, %t)\n",
			escapeSQL(vt.ID), vt.Code, escapeSQL(vt.Name), flow, kind, stock, vt.Annullable, vt.Deferrable)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name, flow = EXCLUDED.flow,\n")
		b.WriteString("    issued_kind = EXCLUDED.issued_kind, stock_effect = EXCLUDED.stock_effect,\n")
		b.WriteString("    annullable = EXCLUDED.annullable, deferrable = EXCLUDED.deferrable;\n")
	}

	for _, t := range cat.Tributes {
		base, err := oneOf("base", t.Base, string(entity.TributeBaseTaxable), string(entity.TributeBaseGross))
		if err != nil {
			return fmt.Errorf("tributo %s: %w", t.ID, err)
		}
		aliquota, err := parseDecimal("alicuota", t.Aliquota)
		if err != nil {
			return fmt.Errorf("tributo %s: %w", t.ID, err)
		}
		fmt.Fprintf(&b, "INSERT INTO tributes (id, description, base_calculo, aliquota) VALUES ('%s', '%s', '%s', %s)\n",
			escapeSQL(t.ID), escapeSQL(t.Description), base, aliquota)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET description = EXCLUDED.description, base_calculo = EXCLUDED.base_calculo, aliquota = EXCLUDED.aliquota;\n")
	}

	for _, c := range cat.Customers {
		if c.TaxID != "" {
			if docType, _ := afip.Identification(c.TaxID); docType == afip.DocTypeUnidentified {
				return fmt.Errorf("cliente %s: documento %q no es CUIT ni DNI válido", c.ID, c.TaxID)
			}
		}
		fmt.Fprintf(&b, "INSERT INTO customers (id, name, tax_id, vat_condition_code, exempt) VALUES ('%s', '%s', '%s', '%s', %t)\n",
			escapeSQL(c.ID), escapeSQL(c.Name), escapeSQL(c.TaxID), escapeSQL(c.VATCondition), c.Exempt)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, tax_id = EXCLUDED.tax_id,\n")
		b.WriteString("    vat_condition_code = EXCLUDED.vat_condition_code, exempt = EXCLUDED.exempt;\n")
	}

	for _, a := range cat.Articles {
		price, err := parseDecimal("precio", a.Price)
		if err != nil {
			return fmt.Errorf("artículo %s: %w", a.ID, err)
		}
		rate, err := parseDecimal("iva", a.VATRate)
		if err != nil {
			return fmt.Errorf("artículo %s: %w", a.ID, err)
		}
		fmt.Fprintf(&b, "INSERT INTO articles (id, code, description, price, default_vat_rate) VALUES ('%s', '%s', '%s', %s, %s)\n",
			escapeSQL(a.ID), escapeSQL(a.Code), escapeSQL(a.Description), price, rate)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, description = EXCLUDED.description,\n")
		b.WriteString("    price = EXCLUDED.price, default_vat_rate = EXCLUDED.default_vat_rate;\n")
		if a.Stock != "" {
			qty, err := parseDecimal("stock", a.Stock)
			if err != nil {
				return fmt.Errorf("artículo %s: %w", a.ID, err)
			}
			// el stock inicial no pisa existencias ya registradas
			fmt.Fprintf(&b, "INSERT INTO stock (article_id, quantity) VALUES ('%s', %s) ON CONFLICT (article_id) DO NOTHING;\n",
				escapeSQL(a.ID), qty)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func oneOf(attr, value string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(value), a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%s inválido %q (%s)", attr, value, strings.Join(allowed, "|"))
}

// parseDecimal acepta coma o punto como separador decimal.
func parseDecimal(attr, value string) (string, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", "."))
	if err != nil {
		return "", fmt.Errorf("%s inválido %q", attr, value)
	}
	return d.String(), nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// LineInput datos para agregar una línea. UnitPrice nil toma el precio de lista del artículo.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
}

// LineUpdate cambios parciales sobre una línea existente.
type LineUpdate struct {
	Description *string
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
	VATRate     *decimal.Decimal
}

// AddLine agrega una línea con la alícuota por defecto del artículo, o con la de otra línea
// del mismo artículo si ya la hay. Si el documento es exento la línea entra con 0 % y no se
// registra en el snapshot.
func AddLine(doc entity.Document, article entity.Article, in LineInput) (entity.Document, error) {
	if err := ensureEditable(doc); err != nil {
		return entity.Document{}, err
	}
	if article.ID == "" {
		return entity.Document{}, domain.NewValidationError("articleId", "artículo requerido")
	}
	price := article.Price
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	desc := in.Description
	if desc == "" {
		desc = article.Description
	}
	rate := article.DefaultVATRate
	if r, ok := articleRate(doc.Lines, article.ID, -1); ok {
		rate = r
	} else if doc.CustomerExempt {
		rate = decimal.Zero
	}

	out := doc.Clone()
	line, err := recomputeLine(linePrefix(len(out.Lines)), entity.DocumentLine{
		ArticleID:   article.ID,
		Description: desc,
		Quantity:    in.Quantity,
		UnitPrice:   price,
		VATRate:     rate,
	})
	if err != nil {
		return entity.Document{}, err
	}
	out.Lines = append(out.Lines, line)
	out.Totals = Aggregate(out.Lines, out.Tributes)
	return out, nil
}

// UpdateLine modifica la línea index y la recalcula.
func UpdateLine(doc entity.Document, index int, upd LineUpdate) (entity.Document, error) {
	if err := ensureEditable(doc); err != nil {
		return entity.Document{}, err
	}
	if index < 0 || index >= len(doc.Lines) {
		return entity.Document{}, domain.NewValidationError("lines", "la línea %d no existe", index)
	}
	out := doc.Clone()
	line := out.Lines[index]
	if upd.Description != nil {
		line.Description = *upd.Description
	}
	if upd.Quantity != nil {
		line.Quantity = *upd.Quantity
	}
	if upd.UnitPrice != nil {
		line.UnitPrice = *upd.UnitPrice
	}
	if upd.VATRate != nil {
		if doc.CustomerExempt && !upd.VATRate.IsZero() {
			return entity.Document{}, domain.NewValidationError(linePrefix(index)+"vatRate", "cliente exento: la alícuota debe ser 0")
		}
		if r, ok := articleRate(out.Lines, line.ArticleID, index); ok && !r.Equal(*upd.VATRate) {
			return entity.Document{}, domain.NewValidationError(linePrefix(index)+"vatRate",
				"el artículo %s ya tiene alícuota %s en otra línea", line.ArticleID, r)
		}
		line.VATRate = *upd.VATRate
	}
	nl, err := recomputeLine(linePrefix(index), line)
	if err != nil {
		return entity.Document{}, err
	}
	out.Lines[index] = nl
	out.Totals = Aggregate(out.Lines, out.Tributes)
	return out, nil
}

// RemoveLine quita la línea index. El snapshot de exención no se toca: puede haber otras
// líneas del mismo artículo.
func RemoveLine(doc entity.Document, index int) (entity.Document, error) {
	if err := ensureEditable(doc); err != nil {
		return entity.Document{}, err
	}
	if index < 0 || index >= len(doc.Lines) {
		return entity.Document{}, domain.NewValidationError("lines", "la línea %d no existe", index)
	}
	out := doc.Clone()
	out.Lines = append(out.Lines[:index], out.Lines[index+1:]...)
	out.Totals = Aggregate(out.Lines, out.Tributes)
	return out, nil
}

// SetTributes reemplaza la selección de tributos y recalcula totales.
func SetTributes(doc entity.Document, tributes []entity.Tribute) (entity.Document, error) {
	if err := ensureEditable(doc); err != nil {
		return entity.Document{}, err
	}
	var errs domain.ValidationErrors
	seen := make(map[string]bool, len(tributes))
	for i, t := range tributes {
		field := fmt.Sprintf("tributes[%d]", i)
		if t.ID == "" {
			errs.Add(field+".id", "tributo requerido")
		} else if seen[t.ID] {
			errs.Add(field+".id", "tributo %s repetido", t.ID)
		}
		seen[t.ID] = true
		if t.Base != entity.TributeBaseTaxable && t.Base != entity.TributeBaseGross {
			errs.Add(field+".baseCalculo", "base de cálculo inválida %q", t.Base)
		}
		if t.Aliquota.IsNegative() || t.Aliquota.GreaterThan(hundred) {
			errs.Add(field+".aliquota", "la alícuota debe estar entre 0 y 100 (%s)", t.Aliquota)
		}
	}
	if err := errs.Err(); err != nil {
		return entity.Document{}, err
	}
	out := doc.Clone()
	out.Tributes = append([]entity.Tribute(nil), tributes...)
	out.Totals = Aggregate(out.Lines, out.Tributes)
	return out, nil
}

// articleRate devuelve la alícuota de la primera línea del artículo, salteando skip.
// El snapshot de exención es por artículo: todas sus líneas comparten alícuota.
func articleRate(lines []entity.DocumentLine, articleID string, skip int) (decimal.Decimal, bool) {
	for i, l := range lines {
		if i != skip && l.ArticleID == articleID {
			return l.VATRate, true
		}
	}
	return decimal.Decimal{}, false
}

// checkArticleRates rechaza líneas de un mismo artículo con alícuotas distintas.
func checkArticleRates(lines []entity.DocumentLine) error {
	var errs domain.ValidationErrors
	seen := make(map[string]decimal.Decimal, len(lines))
	for i, l := range lines {
		r, ok := seen[l.ArticleID]
		if !ok {
			seen[l.ArticleID] = l.VATRate
			continue
		}
		if !r.Equal(l.VATRate) {
			errs.Add(linePrefix(i)+"vatRate", "el artículo %s ya tiene alícuota %s en otra línea", l.ArticleID, r)
		}
	}
	return errs.Err()
}

package entity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Grafías aceptadas en el borde (datos heredados, formularios, API).
var stateAliases = map[string]DocumentState{
	"order":     StateOrder,
	"orden":     StateOrder,
	"pedido":    StateOrder,
	"ticket":    StateTicket,
	"tique":     StateTicket,
	"invoice":   StateInvoice,
	"factura":   StateInvoice,
	"facturado": StateInvoice,
	"facturada": StateInvoice,
	"annulled":  StateAnnulled,
	"anulado":   StateAnnulled,
	"anulada":   StateAnnulled,
}

// foldKey normaliza una grafía: sin tildes, sin espacios extremos y en minúsculas (case folding).
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ParseState convierte cualquier grafía conocida ("Orden", "facturado", "ANULADO") al estado canónico.
func ParseState(s string) (DocumentState, error) {
	if st, ok := stateAliases[foldKey(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("estado desconocido %q", s)
}

// ParseKind convierte una grafía de tipo de comprobante. Annulled no es un tipo.
func ParseKind(s string) (DocumentKind, error) {
	st, err := ParseState(s)
	if err != nil || st == StateAnnulled {
		return "", fmt.Errorf("tipo de comprobante desconocido %q", s)
	}
	return DocumentKind(st), nil
}

// Action acción solicitada sobre el comprobante.
type Action string

const (
	ActionFacturar Action = "facturar"
	ActionAnular   Action = "anular"
)

var actionAliases = map[string]Action{
	"facturar": ActionFacturar,
	"invoice":  ActionFacturar,
	"issue":    ActionFacturar,
	"anular":   ActionAnular,
	"annul":    ActionAnular,
	"void":     ActionAnular,
}

// ParseAction normaliza el nombre de la acción.
func ParseAction(s string) (Action, error) {
	if a, ok := actionAliases[foldKey(s)]; ok {
		return a, nil
	}
	return "", fmt.Errorf("acción desconocida %q", s)
}

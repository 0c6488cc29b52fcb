// Package fiscal contiene los adaptadores que obtienen el CAE de un comprobante emitido.
package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/comprobantes-api/internal/application/billing"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/pkg/afip"
)

// Modos de operación (FISCAL_MODE).
const (
	ModeDev  = "dev"  // CAE simulado, no sale de la aplicación
	ModeHTTP = "http" // delega en un servicio externo que habla con AFIP
)

var (
	_ billing.FiscalAuthorizer = (*DevAuthorizer)(nil)
	_ billing.FiscalAuthorizer = (*HTTPAuthorizer)(nil)
)

// ── Modo dev ───────────────────────────────────────────────────────────────────

// DevAuthorizer devuelve un CAE determinístico de 14 dígitos derivado del comprobante.
// Mismo pedido, mismo CAE: reintentar no genera conflictos.
type DevAuthorizer struct {
	validDays int
	now       func() time.Time
}

// NewDevAuthorizer construye el autorizador simulado. validDays <= 0 usa 10 días.
func NewDevAuthorizer(validDays int) *DevAuthorizer {
	if validDays <= 0 {
		validDays = 10
	}
	return &DevAuthorizer{validDays: validDays, now: time.Now}
}

// Authorize implementa billing.FiscalAuthorizer.
func (a *DevAuthorizer) Authorize(ctx context.Context, req entity.FiscalAuthorizationRequest) (*entity.FiscalAuthorization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// mismo rechazo que AFIP: comprobante clase A a un receptor sin CUIT válida
	if req.Flow != entity.FlowPurchase && afip.RequiresCUIT(req.VoucherCode) {
		if err := afip.ValidateCUIT(req.CustomerTaxID); err != nil {
			return nil, fmt.Errorf("fiscal: comprobante clase A rechazado: %w", err)
		}
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d", req.DocumentID, req.SalesPointID, req.VoucherTypeID, req.SequenceNumber)
	cae := fmt.Sprintf("%014d", h.Sum64()%100_000_000_000_000)

	base := req.IssuedAt
	if base.IsZero() {
		base = a.now()
	}
	y, m, d := base.Date()
	expires := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, a.validDays)
	return &entity.FiscalAuthorization{CAE: cae, ExpiresAt: expires}, nil
}

// ── Modo http ──────────────────────────────────────────────────────────────────

// HTTPAuthorizer envía el pedido como JSON a un servicio externo (sidecar WSFE) y espera
// {"cae": "...", "cae_expires_at": "YYYY-MM-DD"} o {"errors": [...]}.
type HTTPAuthorizer struct {
	url        string
	httpClient *http.Client
}

// NewHTTPAuthorizer construye el cliente. timeout <= 0 usa 30 s.
func NewHTTPAuthorizer(url string, timeout time.Duration) *HTTPAuthorizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAuthorizer{url: url, httpClient: &http.Client{Timeout: timeout}}
}

type authorizeLine struct {
	ArticleID     string `json:"article_id"`
	Quantity      string `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	VATRate       string `json:"vat_rate"`
	Subtotal      string `json:"subtotal"`
	VATAmount     string `json:"vat_amount"`
	TaxableAmount string `json:"taxable_amount"`
}

type authorizeVAT struct {
	ID     int    `json:"id,omitempty"` // Id de alícuota AFIP
	Rate   string `json:"rate"`
	Base   string `json:"base"`
	Amount string `json:"amount"`
}

type authorizeTribute struct {
	ID       string `json:"id"`
	Base     string `json:"base"`
	Aliquota string `json:"aliquota"`
	Amount   string `json:"amount"`
}

type authorizeRequest struct {
	DocumentID     string             `json:"document_id"`
	SalesPointID   string             `json:"sales_point_id"`
	VoucherTypeID  string             `json:"voucher_type_id"`
	VoucherCode    int                `json:"voucher_code"`
	SequenceNumber int64              `json:"sequence_number"`
	IssuedAt       string             `json:"issued_at"`
	CustomerID     string             `json:"customer_id"`
	DocType        int                `json:"doc_tipo"`
	DocNumber      string             `json:"doc_nro"`
	Subtotal       string             `json:"subtotal"`
	TaxableTotal   string             `json:"taxable_total"`
	VATTotal       string             `json:"vat_total"`
	TributesTotal  string             `json:"tributes_total"`
	Total          string             `json:"total"`
	VAT            []authorizeVAT     `json:"vat"`
	Tributes       []authorizeTribute `json:"tributes"`
	Lines          []authorizeLine    `json:"lines"`
}

type authorizeResponse struct {
	CAE          string   `json:"cae"`
	CAEExpiresAt string   `json:"cae_expires_at"`
	Errors       []string `json:"errors"`
}

func toAuthorizeRequest(req entity.FiscalAuthorizationRequest) authorizeRequest {
	places := int32(entity.CurrencyPlaces)
	t := req.Totals
	docType, docNumber := afip.Identification(req.CustomerTaxID)
	out := authorizeRequest{
		DocumentID:     req.DocumentID,
		SalesPointID:   req.SalesPointID,
		VoucherTypeID:  req.VoucherTypeID,
		VoucherCode:    req.VoucherCode,
		SequenceNumber: req.SequenceNumber,
		IssuedAt:       req.IssuedAt.Format("2006-01-02"),
		CustomerID:     req.CustomerRef,
		DocType:        docType,
		DocNumber:      docNumber,
		Subtotal:       t.Subtotal.StringFixed(places),
		TaxableTotal:   t.TaxableTotal.StringFixed(places),
		VATTotal:       t.VATTotal.StringFixed(places),
		TributesTotal:  t.TributesTotal.StringFixed(places),
		Total:          t.Total.StringFixed(places),
	}
	for _, g := range t.VATBreakdown {
		id, _ := afip.VATAliquotID(g.Rate)
		out.VAT = append(out.VAT, authorizeVAT{ID: id, Rate: g.Rate.String(), Base: g.Base.StringFixed(places), Amount: g.Amount.StringFixed(places)})
	}
	for _, tr := range t.Tributes {
		out.Tributes = append(out.Tributes, authorizeTribute{
			ID:       tr.TributeID,
			Base:     tr.Base.StringFixed(places),
			Aliquota: tr.Aliquota.String(),
			Amount:   tr.Amount.StringFixed(places),
		})
	}
	for _, l := range req.Lines {
		out.Lines = append(out.Lines, authorizeLine{
			ArticleID:     l.ArticleID,
			Quantity:      l.Quantity.String(),
			UnitPrice:     l.UnitPrice.String(),
			VATRate:       l.VATRate.String(),
			Subtotal:      l.Subtotal.StringFixed(places),
			VATAmount:     l.VATAmount.StringFixed(places),
			TaxableAmount: l.TaxableAmount.StringFixed(places),
		})
	}
	return out
}

// Authorize implementa billing.FiscalAuthorizer.
func (a *HTTPAuthorizer) Authorize(ctx context.Context, req entity.FiscalAuthorizationRequest) (*entity.FiscalAuthorization, error) {
	payload, err := json.Marshal(toAuthorizeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("fiscal: serializar pedido: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fiscal: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fiscal: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("fiscal: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("fiscal: leer respuesta: %w", err)
	}

	var out authorizeResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("fiscal: respuesta inválida: %w", err)
		}
	}
	if resp.StatusCode >= 300 || len(out.Errors) > 0 {
		msg := strings.Join(out.Errors, "; ")
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("fiscal: rechazado (HTTP %d): %s", resp.StatusCode, msg)
	}

	expires, err := time.Parse("2006-01-02", out.CAEExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("fiscal: vencimiento de CAE inválido %q: %w", out.CAEExpiresAt, err)
	}
	return &entity.FiscalAuthorization{CAE: out.CAE, ExpiresAt: expires}, nil
}

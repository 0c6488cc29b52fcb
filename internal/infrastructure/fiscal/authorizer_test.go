package fiscal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/infrastructure/fiscal"
)

func request() entity.FiscalAuthorizationRequest {
	return entity.FiscalAuthorizationRequest{
		DocumentID:     "doc-1",
		SalesPointID:   "pv-1",
		VoucherTypeID:  "FB",
		VoucherCode:    6,
		SequenceNumber: 42,
		IssuedAt:       time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC),
		CustomerRef:    "cf",
		Totals: entity.Totals{
			Subtotal:     decimal.RequireFromString("1000"),
			TaxableTotal: decimal.RequireFromString("826.45"),
			VATTotal:     decimal.RequireFromString("173.55"),
			Total:        decimal.RequireFromString("1000"),
		},
	}
}

// ── DevAuthorizer ─────────────────────────────────────────────────────────────

func TestDevAuthorizer_CAEDeterministico(t *testing.T) {
	a := fiscal.NewDevAuthorizer(10)
	ctx := context.Background()

	first, err := a.Authorize(ctx, request())
	require.NoError(t, err)
	second, err := a.Authorize(ctx, request())
	require.NoError(t, err)

	assert.Len(t, first.CAE, 14)
	assert.Regexp(t, `^[0-9]{14}$`, first.CAE)
	assert.Equal(t, first.CAE, second.CAE)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), first.ExpiresAt)

	other := request()
	other.SequenceNumber = 43
	third, err := a.Authorize(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, first.CAE, third.CAE)
}

func TestDevAuthorizer_ClaseAExigeCUIT(t *testing.T) {
	a := fiscal.NewDevAuthorizer(10)
	ctx := context.Background()

	req := request()
	req.VoucherTypeID, req.VoucherCode = "FA", 1
	_, err := a.Authorize(ctx, req)
	assert.Error(t, err)

	req.CustomerTaxID = "30-71234567-1"
	auth, err := a.Authorize(ctx, req)
	require.NoError(t, err)
	assert.Len(t, auth.CAE, 14)

	// compras clase A: el emisor es el proveedor
	purchase := request()
	purchase.Flow, purchase.VoucherCode = entity.FlowPurchase, 1
	_, err = a.Authorize(ctx, purchase)
	assert.NoError(t, err)
}

func TestDevAuthorizer_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fiscal.NewDevAuthorizer(0).Authorize(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

// ── HTTPAuthorizer ────────────────────────────────────────────────────────────

func TestHTTPAuthorizer_Aceptado(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cae":"74123456789012","cae_expires_at":"2026-03-25"}`))
	}))
	defer srv.Close()

	auth, err := fiscal.NewHTTPAuthorizer(srv.URL, time.Second).Authorize(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "74123456789012", auth.CAE)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), auth.ExpiresAt)

	assert.Equal(t, "doc-1", got["document_id"])
	assert.Equal(t, float64(6), got["voucher_code"])
	assert.Equal(t, float64(42), got["sequence_number"])
	assert.Equal(t, "2026-03-15", got["issued_at"])
	assert.Equal(t, "826.45", got["taxable_total"])
	assert.Equal(t, "1000.00", got["total"])
	assert.Equal(t, float64(99), got["doc_tipo"])
	assert.Equal(t, "0", got["doc_nro"])
}

func TestHTTPAuthorizer_Rechazos(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"errores de negocio", http.StatusOK, `{"errors":["10016: número no correlativo"]}`},
		{"error de servidor", http.StatusBadGateway, `upstream caído`},
		{"vencimiento ilegible", http.StatusOK, `{"cae":"74123456789012","cae_expires_at":"mañana"}`},
		{"json inválido", http.StatusOK, `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			auth, err := fiscal.NewHTTPAuthorizer(srv.URL, time.Second).Authorize(context.Background(), request())
			assert.Error(t, err)
			assert.Nil(t, auth)
		})
	}
}

package fiscal_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeAllocator numera en memoria por (punto de venta, tipo).
type fakeAllocator struct {
	next  map[string]int64
	calls int
	err   error
}

func newFakeAllocator() *fakeAllocator { return &fakeAllocator{next: map[string]int64{}} }

func (a *fakeAllocator) AllocateSequenceNumber(salesPointID, voucherTypeID string) (int64, error) {
	a.calls++
	if a.err != nil {
		return 0, a.err
	}
	key := salesPointID + "/" + voucherTypeID
	a.next[key]++
	return a.next[key], nil
}

func idSeq() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("doc-%d", n)
	}
}

func facturaB() *entity.VoucherType {
	return &entity.VoucherType{
		ID: "FB", Code: 6, Name: "Factura B", Flow: entity.FlowSale,
		IssuedKind: entity.KindInvoice, Stock: entity.StockDecrement,
		Annullable: true, Deferrable: true,
	}
}

func consumidorFinal() *entity.Customer {
	return &entity.Customer{ID: "cli-1", Name: "Consumidor Final", VATConditionCode: entity.VATConditionFinal}
}

func line(article, qty, price, rate string) entity.DocumentLine {
	l, err := fiscal.RecomputeLine(entity.DocumentLine{
		ArticleID: article, Quantity: d(qty), UnitPrice: d(price), VATRate: d(rate),
	})
	if err != nil {
		panic(err)
	}
	return l
}

// orderWith arma una orden editable con las líneas dadas.
func orderWith(lines ...entity.DocumentLine) entity.Document {
	return entity.Document{
		ID:            "ord-1",
		Flow:          entity.FlowSale,
		Kind:          entity.KindOrder,
		State:         entity.StateOrder,
		CustomerRef:   "cli-1",
		VoucherTypeID: "FB",
		SalesPointID:  "pv-1",
		Lines:         lines,
		Totals:        fiscal.Aggregate(lines, nil),
	}
}

// issuedInvoice factura emitida con CAE, lista para anular.
func issuedInvoice(t *testing.T, lines ...entity.DocumentLine) entity.Document {
	t.Helper()
	res, err := fiscal.Transition(orderWith(lines...), entity.ActionFacturar, fiscal.Env{
		Customer:    consumidorFinal(),
		VoucherType: facturaB(),
		Stock:       plentyOfStock(lines),
		Allocator:   newFakeAllocator(),
		Now:         testNow,
	})
	require.NoError(t, err)
	doc, err := fiscal.RecordAuthorization(res.Document, entity.FiscalAuthorization{
		CAE: "74123456789012", ExpiresAt: testNow.AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	return doc
}

func plentyOfStock(lines []entity.DocumentLine) fiscal.StockLevels {
	s := fiscal.StockLevels{}
	for _, l := range lines {
		s[l.ArticleID] = d("1000")
	}
	return s
}

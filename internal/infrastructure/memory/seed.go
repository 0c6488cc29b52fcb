package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// NewSeeded crea un store con un catálogo mínimo para desarrollo: un punto de venta, los tipos
// de comprobante habituales, clientes de cada condición de IVA, artículos y dos percepciones.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	s.PutSalesPoint(entity.SalesPoint{ID: "pv-1", Number: 1, Name: "Casa central", IsActive: true, CreatedAt: now, UpdatedAt: now})
	s.PutSalesPoint(entity.SalesPoint{ID: "pv-2", Number: 2, Name: "Sucursal (baja)", IsActive: false, CreatedAt: now, UpdatedAt: now})

	for _, vt := range []entity.VoucherType{
		{ID: "FA", Code: 1, Name: "Factura A", Flow: entity.FlowSale, IssuedKind: entity.KindInvoice, Stock: entity.StockDecrement, Annullable: true, Deferrable: true},
		{ID: "FB", Code: 6, Name: "Factura B", Flow: entity.FlowSale, IssuedKind: entity.KindInvoice, Stock: entity.StockDecrement, Annullable: true, Deferrable: true},
		{ID: "FC", Code: 11, Name: "Factura C", Flow: entity.FlowSale, IssuedKind: entity.KindInvoice, Stock: entity.StockDecrement, Annullable: false, Deferrable: true},
		{ID: "TQ", Code: 83, Name: "Tique", Flow: entity.FlowSale, IssuedKind: entity.KindTicket, Stock: entity.StockDecrement, Annullable: true, Deferrable: false},
		{ID: "CP", Code: 1, Name: "Factura de compra", Flow: entity.FlowPurchase, IssuedKind: entity.KindInvoice, Stock: entity.StockIncrement, Annullable: true, Deferrable: true},
		{ID: "SV", Code: 6, Name: "Factura B servicios", Flow: entity.FlowSale, IssuedKind: entity.KindInvoice, Stock: entity.StockNone, Annullable: true, Deferrable: true},
	} {
		s.PutVoucherType(vt)
	}

	for _, c := range []entity.Customer{
		{ID: "cf", Name: "Consumidor Final", VATConditionCode: entity.VATConditionFinal},
		{ID: "ri-1", Name: "Distribuidora Norte SA", TaxID: "30712345671", VATConditionCode: entity.VATConditionResponsable},
		{ID: "mt-1", Name: "Juan Pérez", TaxID: "20301234563", VATConditionCode: entity.VATConditionMonotributo},
		{ID: "ex-1", Name: "Fundación Sur", TaxID: "30698765433", VATConditionCode: entity.VATConditionExento, Exempt: true},
	} {
		c.CreatedAt, c.UpdatedAt = now, now
		s.PutCustomer(c)
	}

	for _, a := range []entity.Article{
		{ID: "art-1", Code: "YERBA-1K", Description: "Yerba mate 1 kg", Price: decimal.RequireFromString("1000"), DefaultVATRate: decimal.NewFromFloat(21), CurrentStock: decimal.NewFromInt(50)},
		{ID: "art-2", Code: "HARINA-1K", Description: "Harina 000 1 kg", Price: decimal.RequireFromString("450"), DefaultVATRate: decimal.RequireFromString("10.5"), CurrentStock: decimal.NewFromInt(100)},
		{ID: "art-3", Code: "ACEITE-900", Description: "Aceite girasol 900 ml", Price: decimal.RequireFromString("1890.50"), DefaultVATRate: decimal.NewFromInt(21), CurrentStock: decimal.NewFromInt(10)},
	} {
		a.CreatedAt, a.UpdatedAt = now, now
		s.PutArticle(a)
	}

	s.PutTribute(entity.Tribute{ID: "IIBB", Description: "Percepción IIBB", Base: entity.TributeBaseTaxable, Aliquota: decimal.NewFromInt(10)})
	s.PutTribute(entity.Tribute{ID: "MUNI", Description: "Tasa municipal", Base: entity.TributeBaseGross, Aliquota: decimal.RequireFromString("1.5")})

	return s
}

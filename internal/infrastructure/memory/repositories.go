package memory

import (
	"context"
	"time"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// ── Comprobantes ─────────────────────────────────────────────────────────────

type documentRepo struct{ v view }

func (r documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.documents[doc.ID]; ok {
			return domain.ErrConflict
		}
		if err := reserveNumber(d, doc); err != nil {
			return err
		}
		d.documents[doc.ID] = doc.Clone()
		return nil
	})
}

func (r documentRepo) Update(ctx context.Context, doc *entity.Document) error {
	return r.v.write(func(d *data) error {
		prev, ok := d.documents[doc.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if prev.SequenceNumber == 0 {
			if err := reserveNumber(d, doc); err != nil {
				return err
			}
		}
		next := doc.Clone()
		next.CAE = prev.CAE
		next.CAEExpiresAt = prev.CAEExpiresAt
		next.CreatedAt = prev.CreatedAt
		d.documents[doc.ID] = next
		return nil
	})
}

// reserveNumber replica la restricción única (punto de venta, tipo, número).
func reserveNumber(d *data, doc *entity.Document) error {
	if doc.SequenceNumber <= 0 {
		return nil
	}
	key := numberKey{seqKey{doc.SalesPointID, doc.VoucherTypeID}, doc.SequenceNumber}
	if owner, ok := d.numbers[key]; ok && owner != doc.ID {
		return domain.NewNumberingConflictError(domain.ErrConflict,
			"el número %d ya fue usado en %s/%s", doc.SequenceNumber, doc.SalesPointID, doc.VoucherTypeID)
	}
	d.numbers[key] = doc.ID
	return nil
}

func (r documentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	var out *entity.Document
	err := r.v.read(func(d *data) error {
		if doc, ok := d.documents[id]; ok {
			c := doc.Clone()
			out = &c
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: las transacciones del store ya están serializadas.
func (r documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r documentRepo) SaveAuthorization(ctx context.Context, id string, auth entity.FiscalAuthorization) error {
	return r.v.write(func(d *data) error {
		doc, ok := d.documents[id]
		if !ok {
			return domain.ErrNotFound
		}
		if doc.CAE != "" {
			return domain.ErrConflict
		}
		doc.CAE = auth.CAE
		doc.CAEExpiresAt = auth.ExpiresAt
		d.documents[id] = doc
		return nil
	})
}

// ── Numeración ───────────────────────────────────────────────────────────────

type sequenceRepo struct{ v view }

func (r sequenceRepo) Next(ctx context.Context, salesPointID, voucherTypeID string) (int64, error) {
	var n int64
	err := r.v.write(func(d *data) error {
		key := seqKey{salesPointID, voucherTypeID}
		d.sequences[key]++
		n = d.sequences[key]
		return nil
	})
	return n, err
}

// ── Stock y movimientos ──────────────────────────────────────────────────────

type stockRepo struct{ v view }

func (r stockRepo) Get(ctx context.Context, articleID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.v.read(func(d *data) error {
		if s, ok := d.stock[articleID]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a Get: las transacciones del store ya están serializadas.
func (r stockRepo) GetForUpdate(ctx context.Context, articleID string) (*entity.Stock, error) {
	return r.Get(ctx, articleID)
}

func (r stockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	return r.v.write(func(d *data) error {
		d.stock[stock.ArticleID] = *stock
		if a, ok := d.articles[stock.ArticleID]; ok {
			a.CurrentStock = stock.Quantity
			d.articles[stock.ArticleID] = a
		}
		return nil
	})
}

type movementRepo struct{ v view }

func (r movementRepo) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	return r.v.write(func(d *data) error {
		d.movements = append(d.movements, *movement)
		return nil
	})
}

func (r movementRepo) ListByDocument(ctx context.Context, documentRef string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.v.read(func(d *data) error {
		for i := range d.movements {
			if d.movements[i].DocumentRef == documentRef {
				m := d.movements[i]
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

// ── Catálogo ─────────────────────────────────────────────────────────────────

type customerRepo struct{ v view }

func (r customerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.v.read(func(d *data) error {
		if c, ok := d.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

type articleRepo struct{ v view }

func (r articleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	var out *entity.Article
	err := r.v.read(func(d *data) error {
		if a, ok := d.articles[id]; ok {
			if s, ok := d.stock[id]; ok {
				a.CurrentStock = s.Quantity
			}
			out = &a
		}
		return nil
	})
	return out, err
}

type voucherTypeRepo struct{ v view }

func (r voucherTypeRepo) GetByID(ctx context.Context, id string) (*entity.VoucherType, error) {
	var out *entity.VoucherType
	err := r.v.read(func(d *data) error {
		if vt, ok := d.voucherTypes[id]; ok {
			out = &vt
		}
		return nil
	})
	return out, err
}

type tributeRepo struct{ v view }

func (r tributeRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.Tribute, error) {
	var out []entity.Tribute
	err := r.v.read(func(d *data) error {
		for _, id := range ids {
			if t, ok := d.tributes[id]; ok {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

type salesPointRepo struct{ v view }

func (r salesPointRepo) GetActiveByID(ctx context.Context, id string) (*entity.SalesPoint, error) {
	var out *entity.SalesPoint
	err := r.v.read(func(d *data) error {
		if sp, ok := d.salesPoints[id]; ok && sp.IsActive {
			out = &sp
		}
		return nil
	})
	return out, err
}

// ── Alta de catálogo ─────────────────────────────────────────────────────────

func (s *Store) put(fn func(d *data)) {
	_ = s.pool().write(func(d *data) error {
		fn(d)
		return nil
	})
}

// PutCustomer registra o reemplaza un cliente.
func (s *Store) PutCustomer(c entity.Customer) {
	s.put(func(d *data) {
		d.customers[c.ID] = c
	})
}

// PutArticle registra o reemplaza un artículo. Su CurrentStock inicializa la existencia.
func (s *Store) PutArticle(a entity.Article) {
	s.put(func(d *data) {
		d.articles[a.ID] = a
		d.stock[a.ID] = entity.Stock{ArticleID: a.ID, Quantity: a.CurrentStock, UpdatedAt: time.Now()}
	})
}

// PutVoucherType registra o reemplaza un tipo de comprobante.
func (s *Store) PutVoucherType(vt entity.VoucherType) {
	s.put(func(d *data) {
		d.voucherTypes[vt.ID] = vt
	})
}

// PutTribute registra o reemplaza un tributo.
func (s *Store) PutTribute(t entity.Tribute) {
	s.put(func(d *data) {
		d.tributes[t.ID] = t
	})
}

// PutSalesPoint registra o reemplaza un punto de venta.
func (s *Store) PutSalesPoint(sp entity.SalesPoint) {
	s.put(func(d *data) {
		d.salesPoints[sp.ID] = sp
	})
}

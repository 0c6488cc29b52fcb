// Package memory implementa los puertos de persistencia en memoria (modo desarrollo y tests).
// Las transacciones se serializan y se revierten restaurando una copia del estado.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/comprobantes-api/internal/application/billing"
	"github.com/jhoicas/comprobantes-api/internal/application/inventory"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)
var _ billing.BillingTxRunner = (*Store)(nil)

type seqKey struct {
	salesPointID  string
	voucherTypeID string
}

type numberKey struct {
	seqKey
	number int64
}

type data struct {
	documents    map[string]entity.Document
	numbers      map[numberKey]string
	sequences    map[seqKey]int64
	stock        map[string]entity.Stock
	movements    []entity.InventoryMovement
	customers    map[string]entity.Customer
	articles     map[string]entity.Article
	voucherTypes map[string]entity.VoucherType
	tributes     map[string]entity.Tribute
	salesPoints  map[string]entity.SalesPoint
}

func newData() *data {
	return &data{
		documents:    make(map[string]entity.Document),
		numbers:      make(map[numberKey]string),
		sequences:    make(map[seqKey]int64),
		stock:        make(map[string]entity.Stock),
		customers:    make(map[string]entity.Customer),
		articles:     make(map[string]entity.Article),
		voucherTypes: make(map[string]entity.VoucherType),
		tributes:     make(map[string]entity.Tribute),
		salesPoints:  make(map[string]entity.SalesPoint),
	}
}

// clone copia lo que una transacción puede modificar; el catálogo es de solo lectura dentro de la tx.
func (d *data) clone() *data {
	out := *d
	out.documents = make(map[string]entity.Document, len(d.documents))
	for k, v := range d.documents {
		out.documents[k] = v.Clone()
	}
	out.numbers = make(map[numberKey]string, len(d.numbers))
	for k, v := range d.numbers {
		out.numbers[k] = v
	}
	out.sequences = make(map[seqKey]int64, len(d.sequences))
	for k, v := range d.sequences {
		out.sequences[k] = v
	}
	out.stock = make(map[string]entity.Stock, len(d.stock))
	for k, v := range d.stock {
		out.stock[k] = v
	}
	out.movements = append([]entity.InventoryMovement(nil), d.movements...)
	return &out
}

// Store base en memoria.
//
// txMu serializa las transacciones y las escrituras sueltas; mu protege cada acceso a d.
// Dentro de una transacción se pueden usar también los repositorios de catálogo, que solo
// leen. Una lectura fuera de la transacción puede ver cambios todavía no confirmados.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    *data
}

// New crea un store vacío.
func New() *Store {
	return &Store{d: newData()}
}

// view da acceso a los datos; tx indica que txMu ya está tomado por la transacción en curso.
type view struct {
	s  *Store
	tx bool
}

func (v view) read(fn func(d *data) error) error {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.d)
}

// write fuera de una transacción es atómico por sí mismo: si fn falla se restaura el estado.
func (v view) write(fn func(d *data) error) error {
	if v.tx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
		return fn(v.s.d)
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	snap := v.s.d.clone()
	if err := fn(v.s.d); err != nil {
		v.s.d = snap
		return err
	}
	return nil
}

func (s *Store) pool() view { return view{s: s} }

// run ejecuta fn como transacción; si devuelve error restaura la copia previa.
func (s *Store) run(fn func(v view) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.d.clone()
	s.mu.RUnlock()

	if err := fn(view{s: s, tx: true}); err != nil {
		s.mu.Lock()
		s.d = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
) error) error {
	return s.run(func(v view) error {
		return fn(stockRepo{v}, movementRepo{v})
	})
}

// RunBilling implementa billing.BillingTxRunner.
func (s *Store) RunBilling(ctx context.Context, fn func(
	docRepo repository.DocumentRepository,
	seqRepo repository.SequenceRepository,
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
) error) error {
	return s.run(func(v view) error {
		return fn(documentRepo{v}, sequenceRepo{v}, stockRepo{v}, movementRepo{v})
	})
}

// Repositorios fuera de transacción.

func (s *Store) Documents() repository.DocumentRepository { return documentRepo{s.pool()} }
func (s *Store) Sequences() repository.SequenceRepository { return sequenceRepo{s.pool()} }
func (s *Store) Stock() repository.StockRepository { return stockRepo{s.pool()} }
func (s *Store) Movements() repository.InventoryMovementRepository { return movementRepo{s.pool()} }
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s.pool()} }
func (s *Store) Articles() repository.ArticleRepository { return articleRepo{s.pool()} }
func (s *Store) VoucherTypes() repository.VoucherTypeRepository { return voucherTypeRepo{s.pool()} }
func (s *Store) Tributes() repository.TributeRepository { return tributeRepo{s.pool()} }
func (s *Store) SalesPoints() repository.SalesPointRepository { return salesPointRepo{s.pool()} }

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
	"github.com/jhoicas/comprobantes-api/internal/infrastructure/memory"
)

func issuedDoc(id string, number int64) *entity.Document {
	return &entity.Document{
		ID:             id,
		State:          entity.StateInvoice,
		Kind:           entity.KindInvoice,
		SalesPointID:   "pv-1",
		VoucherTypeID:  "FB",
		SequenceNumber: number,
	}
}

func TestRunBilling_RollbackRestauraEstado(t *testing.T) {
	s := memory.NewSeeded()
	ctx := context.Background()
	boom := errors.New("falla")

	err := s.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
	) error {
		_, err := seqRepo.Next(ctx, "pv-1", "FB")
		require.NoError(t, err)
		require.NoError(t, docRepo.Create(ctx, issuedDoc("d1", 1)))
		require.NoError(t, stockRepo.Upsert(ctx, &entity.Stock{ArticleID: "art-1", Quantity: decimal.Zero}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	doc, err := s.Documents().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	st, err := s.Stock().Get(ctx, "art-1")
	require.NoError(t, err)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(50)))

	// el número liberado por el rollback se vuelve a entregar
	n, err := s.Sequences().Next(ctx, "pv-1", "FB")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSequences_IndependientesPorClave(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seq := s.Sequences()

	a1, _ := seq.Next(ctx, "pv-1", "FA")
	a2, _ := seq.Next(ctx, "pv-1", "FA")
	b1, _ := seq.Next(ctx, "pv-1", "FB")
	c1, _ := seq.Next(ctx, "pv-2", "FA")

	assert.Equal(t, []int64{1, 2, 1, 1}, []int64{a1, a2, b1, c1})
}

func TestDocuments_NumeroDuplicadoEsConflicto(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	docs := s.Documents()

	require.NoError(t, docs.Create(ctx, issuedDoc("d1", 7)))
	err := docs.Create(ctx, issuedDoc("d2", 7))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNumberingConflict)

	// otro tipo de comprobante con el mismo número es válido
	other := issuedDoc("d3", 7)
	other.VoucherTypeID = "FA"
	require.NoError(t, docs.Create(ctx, other))
}

func TestDocuments_SaveAuthorizationUnaSolaVez(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	docs := s.Documents()
	require.NoError(t, docs.Create(ctx, issuedDoc("d1", 1)))

	auth := entity.FiscalAuthorization{CAE: "74123456789012", ExpiresAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, docs.SaveAuthorization(ctx, "d1", auth))
	err := docs.SaveAuthorization(ctx, "d1", entity.FiscalAuthorization{CAE: "11111111111111", ExpiresAt: auth.ExpiresAt})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := docs.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "74123456789012", got.CAE)

	// Update no pisa el CAE
	got.CAE = ""
	require.NoError(t, docs.Update(ctx, got))
	again, _ := docs.GetByID(ctx, "d1")
	assert.Equal(t, "74123456789012", again.CAE)

	assert.ErrorIs(t, docs.SaveAuthorization(ctx, "nope", auth), domain.ErrNotFound)
}

func TestSalesPoints_InactivoNoSeDevuelve(t *testing.T) {
	s := memory.NewSeeded()
	ctx := context.Background()

	sp, err := s.SalesPoints().GetActiveByID(ctx, "pv-1")
	require.NoError(t, err)
	require.NotNil(t, sp)

	sp, err = s.SalesPoints().GetActiveByID(ctx, "pv-2")
	require.NoError(t, err)
	assert.Nil(t, sp)
}

func TestTributes_GetByIDsOmiteInexistentes(t *testing.T) {
	s := memory.NewSeeded()
	got, err := s.Tributes().GetByIDs(context.Background(), []string{"MUNI", "XX", "IIBB"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MUNI", got[0].ID)
	assert.Equal(t, "IIBB", got[1].ID)
}

func TestRunBilling_LecturaDeCatalogoDentroDeTransaccion(t *testing.T) {
	s := memory.NewSeeded()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- s.RunBilling(ctx, func(
			docRepo repository.DocumentRepository,
			_ repository.SequenceRepository,
			_ repository.StockRepository,
			_ repository.InventoryMovementRepository,
		) error {
			if _, err := s.VoucherTypes().GetByID(ctx, "FB"); err != nil {
				return err
			}
			if _, err := s.Customers().GetByID(ctx, "ri-1"); err != nil {
				return err
			}
			return docRepo.Create(ctx, issuedDoc("d1", 1))
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("la transacción quedó bloqueada")
	}
	doc, err := s.Documents().GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

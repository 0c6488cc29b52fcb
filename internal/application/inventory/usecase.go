package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/application/dto"
	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

// LedgerUseCase aplica los intents de movimiento emitidos por el motor de comprobantes
// sobre el stock materializado, con bloqueo de fila (SELECT FOR UPDATE).
type LedgerUseCase struct {
	txRunner TxRunner
}

// NewLedgerUseCase construye el caso de uso. txRunner se usa en las operaciones con transacción propia.
func NewLedgerUseCase(txRunner TxRunner) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner}
}

// Apply aplica los intents en una transacción propia.
func (uc *LedgerUseCase) Apply(ctx context.Context, intents []entity.InventoryMovementIntent) error {
	if len(intents) == 0 {
		return nil
	}
	return uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.InventoryMovementRepository) error {
		return uc.ApplyIntentsInTx(ctx, stockRepo, movRepo, intents, time.Now())
	})
}

// ApplyIntentsInTx aplica los intents usando los repositorios del caller (misma transacción).
// Si retorna error, el caller debe hacer rollback: el cambio de estado del comprobante y
// su efecto en stock se confirman juntos o no se confirman.
func (uc *LedgerUseCase) ApplyIntentsInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.InventoryMovementRepository,
	intents []entity.InventoryMovementIntent,
	now time.Time,
) error {
	for _, in := range intents {
		if in.ArticleID == "" || in.DocumentRef == "" {
			return domain.ErrInvalidInput
		}
		if in.Delta.IsZero() {
			continue
		}
		stock, err := stockRepo.GetForUpdate(ctx, in.ArticleID)
		if err != nil {
			return fmt.Errorf("bloquear stock %s: %w", in.ArticleID, err)
		}
		if stock == nil {
			stock = &entity.Stock{ArticleID: in.ArticleID}
		}
		stock.Quantity = stock.Quantity.Add(in.Delta)
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return err
		}

		movType := entity.MovementTypeIN
		if in.Delta.IsNegative() {
			movType = entity.MovementTypeOUT
		}
		mov := &entity.InventoryMovement{
			ID:          uuid.New().String(),
			DocumentRef: in.DocumentRef,
			ArticleID:   in.ArticleID,
			Type:        movType,
			Reason:      in.Reason,
			Quantity:    in.Delta,
			Date:        now,
			CreatedAt:   now,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
	}
	return nil
}

// StockLevelsForUpdate lee y bloquea la existencia de cada artículo (orden por ID para
// evitar deadlocks entre transacciones concurrentes).
func StockLevelsForUpdate(ctx context.Context, stockRepo repository.StockRepository, lines []entity.DocumentLine) (fiscal.StockLevels, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ArticleID] {
			seen[l.ArticleID] = true
			ids = append(ids, l.ArticleID)
		}
	}
	sort.Strings(ids)
	levels := make(fiscal.StockLevels, len(ids))
	for _, id := range ids {
		s, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bloquear stock %s: %w", id, err)
		}
		if s == nil {
			levels[id] = decimal.Zero
			continue
		}
		levels[id] = s.Quantity
	}
	return levels, nil
}

// Movements lista los movimientos que generó un comprobante (emisión y anulación).
func (uc *LedgerUseCase) Movements(ctx context.Context, documentRef string) ([]dto.MovementResponse, error) {
	if documentRef == "" {
		return nil, domain.ErrInvalidInput
	}
	var list []*entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(_ repository.StockRepository, movRepo repository.InventoryMovementRepository) error {
		var err error
		list, err = movRepo.ListByDocument(ctx, documentRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementResponse{
			ID:         m.ID,
			DocumentID: m.DocumentRef,
			ArticleID:  m.ArticleID,
			Type:       m.Type,
			Reason:     string(m.Reason),
			Quantity:   m.Quantity,
			Date:       m.Date.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// Stock devuelve la existencia actual. Un artículo sin fila de stock tiene existencia cero.
func (uc *LedgerUseCase) Stock(ctx context.Context, articleID string) (*dto.StockResponse, error) {
	if articleID == "" {
		return nil, domain.ErrInvalidInput
	}
	var st *entity.Stock
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, _ repository.InventoryMovementRepository) error {
		var err error
		st, err = stockRepo.Get(ctx, articleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &dto.StockResponse{ArticleID: articleID, Quantity: decimal.Zero}
	if st != nil {
		out.Quantity = st.Quantity
		if !st.UpdatedAt.IsZero() {
			out.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
		}
	}
	return out, nil
}

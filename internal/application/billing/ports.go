package billing

import (
	"context"
	"time"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye repos de comprobantes,
// numeración e inventario.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
	) error) error
}

// InventoryUseCase interfaz para integrar comprobantes con inventario.
// ApplyIntentsInTx aplica los movimientos usando los repositorios del caller (misma transacción).
// Si retorna error, el caller debe hacer rollback.
type InventoryUseCase interface {
	ApplyIntentsInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
		intents []entity.InventoryMovementIntent,
		now time.Time,
	) error
}

// FiscalAuthorizer solicita el CAE de un comprobante ya emitido.
// Se invoca después del commit: un rechazo no revierte la numeración.
type FiscalAuthorizer interface {
	Authorize(ctx context.Context, req entity.FiscalAuthorizationRequest) (*entity.FiscalAuthorization, error)
}

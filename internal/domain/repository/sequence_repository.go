package repository

import "context"

// SequenceRepository numeración por (punto de venta, tipo de comprobante).
// Next es un test-and-increment atómico; debe ejecutarse en la misma transacción que
// persiste el comprobante para que un rollback libere el número.
type SequenceRepository interface {
	Next(ctx context.Context, salesPointID, voucherTypeID string) (int64, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo numeración correlativa por (punto de venta, tipo de comprobante).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Debe recibir la tx de la transición para que
// un rollback libere el número.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el último número de la clave en una sola sentencia.
// La fila queda bloqueada hasta el fin de la transacción.
func (r *SequenceRepo) Next(ctx context.Context, salesPointID, voucherTypeID string) (int64, error) {
	query := `
		INSERT INTO document_sequences (sales_point_id, voucher_type_id, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (sales_point_id, voucher_type_id)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(ctx, query, salesPointID, voucherTypeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence number: %w", err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const numberConstraint = "documents_number_key"

// DocumentRepo persiste cabecera, líneas y tributos de los comprobantes (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create inserta la cabecera y sus hijos. La restricción única sobre
// (punto de venta, tipo, número) se traduce a un conflicto de numeración.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	exemption, err := marshalExemption(doc.Exemption)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (
			id, flow, kind, state, customer_id, customer_exempt, voucher_type_id, sales_point_id,
			sequence_number, issued_at, cae, cae_expires_at, linked_document_id, reversal, exemption,
			subtotal, taxable_total, vat_total, tributes_total, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb,
			$16, $17, $18, $19, $20, $21, $22)`
	_, err = r.q.Exec(ctx, query,
		doc.ID, doc.Flow, doc.Kind, doc.State, nullIfEmpty(doc.CustomerRef), doc.CustomerExempt,
		doc.VoucherTypeID, doc.SalesPointID,
		nullIfZero(doc.SequenceNumber), nullIfZeroTime(doc.IssuedAt),
		nullIfEmpty(doc.CAE), nullIfZeroTime(doc.CAEExpiresAt),
		nullIfEmpty(doc.LinkedDocumentRef), doc.Reversal, exemption,
		doc.Totals.Subtotal, doc.Totals.TaxableTotal, doc.Totals.VATTotal,
		doc.Totals.TributesTotal, doc.Totals.Total,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return r.mapWriteError(err, doc, "insert document")
	}
	return r.insertChildren(ctx, doc)
}

// Update reemplaza todo salvo CAE y vencimiento. Las líneas y tributos se reescriben completos.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	exemption, err := marshalExemption(doc.Exemption)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents
		SET flow               = $2,
		    kind               = $3,
		    state              = $4,
		    customer_id        = $5,
		    customer_exempt    = $6,
		    voucher_type_id    = $7,
		    sales_point_id     = $8,
		    sequence_number    = $9,
		    issued_at          = $10,
		    linked_document_id = $11,
		    reversal           = $12,
		    exemption          = $13::jsonb,
		    subtotal           = $14,
		    taxable_total      = $15,
		    vat_total          = $16,
		    tributes_total     = $17,
		    total              = $18,
		    updated_at         = $19
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, doc.Flow, doc.Kind, doc.State, nullIfEmpty(doc.CustomerRef), doc.CustomerExempt,
		doc.VoucherTypeID, doc.SalesPointID,
		nullIfZero(doc.SequenceNumber), nullIfZeroTime(doc.IssuedAt),
		nullIfEmpty(doc.LinkedDocumentRef), doc.Reversal, exemption,
		doc.Totals.Subtotal, doc.Totals.TaxableTotal, doc.Totals.VATTotal,
		doc.Totals.TributesTotal, doc.Totals.Total,
		doc.UpdatedAt,
	)
	if err != nil {
		return r.mapWriteError(err, doc, "update document")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete document lines: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_tributes WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete document tributes: %w", err)
	}
	return r.insertChildren(ctx, doc)
}

func (r *DocumentRepo) mapWriteError(err error, doc *entity.Document, op string) error {
	if isUniqueViolation(err) {
		if violatedConstraint(err) == numberConstraint {
			return domain.NewNumberingConflictError(err, "el número %d ya fue usado en %s/%s",
				doc.SequenceNumber, doc.SalesPointID, doc.VoucherTypeID)
		}
		return domain.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *DocumentRepo) insertChildren(ctx context.Context, doc *entity.Document) error {
	lineQuery := `
		INSERT INTO document_lines (document_id, position, article_id, description, quantity,
			unit_price, vat_rate, subtotal, vat_amount, taxable_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, l := range doc.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			doc.ID, i, l.ArticleID, l.Description, l.Quantity,
			l.UnitPrice, l.VATRate, l.Subtotal, l.VATAmount, l.TaxableAmount,
		)
		if err != nil {
			return fmt.Errorf("insert document line: %w", err)
		}
	}
	tributeQuery := `
		INSERT INTO document_tributes (document_id, position, tribute_id, description, base_calculo, aliquota)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i, t := range doc.Tributes {
		_, err := r.q.Exec(ctx, tributeQuery, doc.ID, i, t.ID, t.Description, t.Base, t.Aliquota)
		if err != nil {
			return fmt.Errorf("insert document tribute: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el comprobante completo. Los totales se recalculan desde líneas y tributos.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate toma un bloqueo de fila; dos transiciones concurrentes sobre el mismo
// comprobante se ejecutan una después de la otra. Usar con un Querier de transacción.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, true)
}

func (r *DocumentRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Document, error) {
	query := `
		SELECT id, flow, kind, state, customer_id, customer_exempt, voucher_type_id, sales_point_id,
		       sequence_number, issued_at, cae, cae_expires_at, linked_document_id, reversal, exemption,
		       created_at, updated_at
		FROM documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		doc                     entity.Document
		customerID, cae, linked *string
		sequence                *int64
		issuedAt, caeExpiresAt  *time.Time
		exemption               []byte
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.Flow, &doc.Kind, &doc.State, &customerID, &doc.CustomerExempt,
		&doc.VoucherTypeID, &doc.SalesPointID,
		&sequence, &issuedAt, &cae, &caeExpiresAt, &linked, &doc.Reversal, &exemption,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc.CustomerRef = derefStr(customerID)
	doc.SequenceNumber = derefInt64(sequence)
	doc.IssuedAt = derefTime(issuedAt)
	doc.CAE = derefStr(cae)
	doc.CAEExpiresAt = derefTime(caeExpiresAt)
	doc.LinkedDocumentRef = derefStr(linked)
	if doc.Exemption, err = unmarshalExemption(exemption); err != nil {
		return nil, err
	}

	if doc.Lines, err = r.lines(ctx, id); err != nil {
		return nil, err
	}
	if doc.Tributes, err = r.tributes(ctx, id); err != nil {
		return nil, err
	}
	doc.Totals = fiscal.Aggregate(doc.Lines, doc.Tributes)
	return &doc, nil
}

func (r *DocumentRepo) lines(ctx context.Context, documentID string) ([]entity.DocumentLine, error) {
	query := `
		SELECT article_id, description, quantity, unit_price, vat_rate, subtotal, vat_amount, taxable_amount
		FROM document_lines WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	var list []entity.DocumentLine
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.ArticleID, &l.Description, &l.Quantity, &l.UnitPrice, &l.VATRate,
			&l.Subtotal, &l.VATAmount, &l.TaxableAmount); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *DocumentRepo) tributes(ctx context.Context, documentID string) ([]entity.Tribute, error) {
	query := `
		SELECT tribute_id, description, base_calculo, aliquota
		FROM document_tributes WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document tributes: %w", err)
	}
	defer rows.Close()
	var list []entity.Tribute
	for rows.Next() {
		var t entity.Tribute
		if err := rows.Scan(&t.ID, &t.Description, &t.Base, &t.Aliquota); err != nil {
			return nil, fmt.Errorf("scan document tribute: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// SaveAuthorization escribe el CAE solo si la columna está vacía.
func (r *DocumentRepo) SaveAuthorization(ctx context.Context, id string, auth entity.FiscalAuthorization) error {
	query := `
		UPDATE documents
		SET cae = $2, cae_expires_at = $3, updated_at = now()
		WHERE id = $1 AND cae IS NULL`
	tag, err := r.q.Exec(ctx, query, id, auth.CAE, auth.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save authorization: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func marshalExemption(s entity.ExemptionSnapshot) (*string, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serializar exención: %w", err)
	}
	out := string(raw)
	return &out, nil
}

func unmarshalExemption(raw []byte) (entity.ExemptionSnapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s entity.ExemptionSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("leer exención: %w", err)
	}
	return s, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
)

var (
	_ repository.ArticleRepository     = (*ArticleRepo)(nil)
	_ repository.VoucherTypeRepository = (*VoucherTypeRepo)(nil)
	_ repository.TributeRepository     = (*TributeRepo)(nil)
	_ repository.SalesPointRepository  = (*SalesPointRepo)(nil)
)

// ── Artículos ─────────────────────────────────────────────────────────────────

// ArticleRepo lectura de artículos con su existencia actual.
type ArticleRepo struct {
	q Querier
}

// NewArticleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewArticleRepository(q Querier) *ArticleRepo {
	return &ArticleRepo{q: q}
}

// GetByID obtiene un artículo por ID.
func (r *ArticleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	query := `
		SELECT a.id, a.code, a.description, a.price, a.default_vat_rate,
		       COALESCE(s.quantity, 0), a.created_at, a.updated_at
		FROM articles a
		LEFT JOIN stock s ON s.article_id = a.id
		WHERE a.id = $1`
	var a entity.Article
	err := r.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Code, &a.Description, &a.Price, &a.DefaultVATRate,
		&a.CurrentStock, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// ── Tipos de comprobante ──────────────────────────────────────────────────────

// VoucherTypeRepo lectura de tipos de comprobante.
type VoucherTypeRepo struct {
	q Querier
}

// NewVoucherTypeRepository construye el adaptador.
func NewVoucherTypeRepository(q Querier) *VoucherTypeRepo {
	return &VoucherTypeRepo{q: q}
}

// GetByID obtiene un tipo de comprobante por ID.
func (r *VoucherTypeRepo) GetByID(ctx context.Context, id string) (*entity.VoucherType, error) {
	query := `
		SELECT id, code, name, flow, issued_kind, stock_effect, annullable, deferrable
		FROM voucher_types WHERE id = $1`
	var vt entity.VoucherType
	err := r.q.QueryRow(ctx, query, id).Scan(
		&vt.ID, &vt.Code, &vt.Name, &vt.Flow, &vt.IssuedKind, &vt.Stock, &vt.Annullable, &vt.Deferrable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get voucher type: %w", err)
	}
	return &vt, nil
}

// ── Tributos ──────────────────────────────────────────────────────────────────

// TributeRepo lectura de tributos.
type TributeRepo struct {
	q Querier
}

// NewTributeRepository construye el adaptador.
func NewTributeRepository(q Querier) *TributeRepo {
	return &TributeRepo{q: q}
}

// GetByIDs devuelve los tributos en el orden pedido; los inexistentes se omiten.
func (r *TributeRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.Tribute, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, description, base_calculo, aliquota FROM tributes WHERE id = ANY($1)`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list tributes: %w", err)
	}
	defer rows.Close()
	byID := make(map[string]entity.Tribute, len(ids))
	for rows.Next() {
		var t entity.Tribute
		if err := rows.Scan(&t.ID, &t.Description, &t.Base, &t.Aliquota); err != nil {
			return nil, fmt.Errorf("scan tribute: %w", err)
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]entity.Tribute, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── Puntos de venta ───────────────────────────────────────────────────────────

// SalesPointRepo lectura de puntos de venta.
type SalesPointRepo struct {
	q Querier
}

// NewSalesPointRepository construye el adaptador.
func NewSalesPointRepository(q Querier) *SalesPointRepo {
	return &SalesPointRepo{q: q}
}

// GetActiveByID devuelve nil, nil si el punto de venta no existe o está inactivo.
func (r *SalesPointRepo) GetActiveByID(ctx context.Context, id string) (*entity.SalesPoint, error) {
	query := `
		SELECT id, number, name, is_active, created_at, updated_at
		FROM sales_points WHERE id = $1 AND is_active`
	sp, err := scanSalesPoint(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales point: %w", err)
	}
	return sp, nil
}

func scanSalesPoint(row pgxScanner) (*entity.SalesPoint, error) {
	var sp entity.SalesPoint
	if err := row.Scan(&sp.ID, &sp.Number, &sp.Name, &sp.IsActive, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
		return nil, err
	}
	return &sp, nil
}

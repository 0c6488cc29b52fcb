package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQuerier guarda el SQL recibido y responde sin filas.
type recordingQuerier struct {
	sql []string
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.sql = append(q.sql, sql)
	return pgconn.CommandTag{}, nil
}

func (q *recordingQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.sql = append(q.sql, sql)
	return nil, pgx.ErrNoRows
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.sql = append(q.sql, sql)
	return noRow{}
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

func TestDocumentRepo_GetForUpdateBloqueaLaFila(t *testing.T) {
	q := &recordingQuerier{}
	repo := NewDocumentRepository(q)
	ctx := context.Background()

	doc, err := repo.GetForUpdate(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)
	require.Len(t, q.sql, 1)
	assert.Contains(t, q.sql[0], "FOR UPDATE")

	_, err = repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, q.sql, 2)
	assert.NotContains(t, q.sql[1], "FOR UPDATE")
}

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres stores documents in a single JSONB table and maps optimistic
// transactions onto serializable SQL transactions: a serialization failure
// at commit is reported as ErrConflict and retried by RunTx.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the documents table if it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT   NOT NULL,
			id         TEXT   NOT NULL,
			data       JSONB  NOT NULL,
			version    BIGINT NOT NULL DEFAULT 1,
			PRIMARY KEY (collection, id)
		)`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	return nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string, out any) error {
	return getDoc(ctx, p.db, collection, id, out)
}

func (p *Postgres) List(ctx context.Context, collection string) ([]Doc, error) {
	return p.Query(ctx, collection, Query{})
}

func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}

	for _, f := range q.Filters {
		op, err := sqlOp(f.Op)
		if err != nil {
			return nil, err
		}

		args = append(args, f.Value)

		// Numeric filter values need a cast; ->> always yields text.
		if _, numeric := toFloat(f.Value); numeric {
			query += fmt.Sprintf(" AND (data->>'%s')::numeric %s $%d", sqlField(f.Field), op, len(args))
		} else {
			query += fmt.Sprintf(" AND data->>'%s' %s $%d", sqlField(f.Field), op, len(args))
		}
	}

	query += " ORDER BY id"

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Doc

	for rows.Next() {
		var d Doc
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", collection, err)
		}

		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s documents: %w", collection, err)
	}

	return docs, nil
}

func (p *Postgres) Create(ctx context.Context, collection string, v any) (string, error) {
	return createDoc(ctx, p.db, collection, v)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, v any) error {
	return setDoc(ctx, p.db, collection, id, v)
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return updateDoc(ctx, p.db, collection, id, fields)
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	return deleteDoc(ctx, p.db, collection, id)
}

func (p *Postgres) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	return runWithRetry(ctx, func() error {
		return p.runOnce(ctx, fn)
	})
}

func (p *Postgres) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", translateError(ctx, err))
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return translateError(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return translateError(ctx, err)
	}

	return nil
}

// pgTx runs document operations against an open serializable transaction.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Get(ctx context.Context, collection, id string, out any) error {
	return getDoc(ctx, t.tx, collection, id, out)
}

func (t *pgTx) Create(ctx context.Context, collection string, v any) (string, error) {
	return createDoc(ctx, t.tx, collection, v)
}

func (t *pgTx) Set(ctx context.Context, collection, id string, v any) error {
	return setDoc(ctx, t.tx, collection, id, v)
}

func (t *pgTx) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return updateDoc(ctx, t.tx, collection, id, fields)
}

func (t *pgTx) Delete(ctx context.Context, collection, id string) error {
	return deleteDoc(ctx, t.tx, collection, id)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDoc(ctx context.Context, q querier, collection, id string, out any) error {
	var data json.RawMessage

	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}

		return fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}

	return json.Unmarshal(data, out)
}

func createDoc(ctx context.Context, q querier, collection string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	id := uuid.NewString()

	_, err = q.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, data,
	)
	if err != nil {
		return "", fmt.Errorf("creating %s document: %w", collection, err)
	}

	return id, nil
}

func setDoc(ctx context.Context, q querier, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, version = documents.version + 1`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("setting %s/%s: %w", collection, id, err)
	}

	return nil
}

func updateDoc(ctx context.Context, q querier, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, version = version + 1
		WHERE collection = $1 AND id = $2`,
		collection, id, patch,
	)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func deleteDoc(ctx context.Context, q querier, collection, id string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}

	return nil
}

func sqlOp(op Op) (string, error) {
	switch op {
	case OpEqual:
		return "=", nil
	case OpGTE:
		return ">=", nil
	case OpLTE:
		return "<=", nil
	case OpLT:
		return "<", nil
	default:
		return "", fmt.Errorf("unsupported filter op %q", op)
	}
}

// sqlField guards the field name interpolated into the JSONB accessor.
func sqlField(field string) string {
	return strings.ReplaceAll(field, "'", "")
}

// translateError maps driver-level failures onto the store's error taxonomy.
func translateError(ctx context.Context, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001": // serialization_failure
			return ErrConflict
		case "57014": // query_canceled
			return ErrTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}

	return err
}

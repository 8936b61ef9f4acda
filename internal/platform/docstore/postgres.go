package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool used by the postgres backend.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every collection in a single JSONB table. The table
// is created by the db migrator (see internal/platform/db/migrations).
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

func (s *PostgresStore) Driver() string { return "postgres" }

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close(_ context.Context) error { return nil }

func (s *PostgresStore) collection(name string) backend {
	return &pgCollection{db: s.db, name: name}
}

type pgCollection struct {
	db   querier
	name string
}

const uniqueViolation = "23505"

func (p *pgCollection) findAll(ctx context.Context, out any) error {
	rows, err := p.db.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 ORDER BY created_at, id`, p.name)
	if err != nil {
		return err
	}
	return scanList(rows, out)
}

func (p *pgCollection) find(ctx context.Context, f Filter, out any) error {
	if len(f) == 0 {
		return p.findAll(ctx, out)
	}
	filter, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}
	rows, err := p.db.Query(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY created_at, id`,
		p.name, string(filter))
	if err != nil {
		return err
	}
	return scanList(rows, out)
}

func (p *pgCollection) findByID(ctx context.Context, id string, out any) error {
	var raw []byte
	err := p.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`, p.name, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (p *pgCollection) insert(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = p.db.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		p.name, id, string(raw))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateID
	}
	return err
}

func (p *pgCollection) replace(ctx context.Context, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tag, err := p.db.Exec(ctx,
		`UPDATE documents SET data = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		p.name, id, string(raw))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgCollection) delete(ctx context.Context, id string) (bool, error) {
	tag, err := p.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, p.name, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *pgCollection) count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if len(f) == 0 {
		err := p.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM documents WHERE collection = $1`, p.name).Scan(&n)
		return n, err
	}
	filter, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("encode filter: %w", err)
	}
	err = p.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1 AND data @> $2::jsonb`,
		p.name, string(filter)).Scan(&n)
	return n, err
}

func scanList(rows pgx.Rows, out any) error {
	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return err
	}
	return decodeList(docs, out)
}

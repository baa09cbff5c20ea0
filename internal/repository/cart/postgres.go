package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"cartvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists carts as whole documents: queryable columns for
// filtering and ordering, the complete record as JSONB. Save rewrites the
// entire row, which gives the port's no-partial-merge guarantee directly.
//
// Ordering compares timestamps at microsecond precision (timestamptz); the
// returned documents keep whatever precision was saved.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *PostgresStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Load(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	const q = `
SELECT doc
FROM carts
WHERE id = $1
`
	var doc []byte
	if err := s.pool.QueryRow(ctx, q, string(id)).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.Printf("cart store: load id=%s error=%v", id, err)
		return nil, storageErr("load", err)
	}
	return decodeCartDoc(doc)
}

func (s *PostgresStore) Save(ctx context.Context, c domain.Cart) error {
	const q = `
INSERT INTO carts (id, store_id, profile_id, session_id, status, created_at, updated_at, doc)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET store_id = EXCLUDED.store_id,
    profile_id = EXCLUDED.profile_id,
    session_id = EXCLUDED.session_id,
    status = EXCLUDED.status,
    created_at = EXCLUDED.created_at,
    updated_at = EXCLUDED.updated_at,
    doc = EXCLUDED.doc
`
	record := c.Clone()
	doc, err := json.Marshal(record)
	if err != nil {
		return storageErr("save", err)
	}

	_, err = s.pool.Exec(ctx, q,
		string(record.ID),
		string(record.StoreID),
		(*string)(record.ProfileID),
		(*string)(record.SessionID),
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
		doc,
	)
	if err != nil {
		s.logger.Printf("cart store: save id=%s error=%v", c.ID, err)
		return storageErr("save", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.CartID) error {
	const q = `
DELETE FROM carts
WHERE id = $1
`
	if _, err := s.pool.Exec(ctx, q, string(id)); err != nil {
		s.logger.Printf("cart store: delete id=%s error=%v", id, err)
		return storageErr("delete", err)
	}
	return nil
}

func (s *PostgresStore) FetchMany(ctx context.Context, query domain.CartQuery) ([]domain.Cart, error) {
	q := fmt.Sprintf(`
SELECT doc
FROM carts
WHERE store_id = $1
  AND (($2::text IS NULL AND profile_id IS NULL) OR profile_id = $2::text)
  AND ($3::text[] IS NULL OR status = ANY($3::text[]))
ORDER BY %s
LIMIT $4::bigint
`, orderClause(query.Sort))

	rows, err := s.pool.Query(ctx, q,
		string(query.StoreID),
		(*string)(query.ProfileID),
		statusParam(query.Statuses),
		limitParam(query.Limit),
	)
	if err != nil {
		s.logger.Printf("cart store: fetch store_id=%s error=%v", query.StoreID, err)
		return nil, storageErr("fetchMany", err)
	}
	defer rows.Close()

	out, err := scanCartDocs(rows)
	if err != nil {
		s.logger.Printf("cart store: fetch store_id=%s error=%v", query.StoreID, err)
		return nil, err
	}
	s.logger.Printf("cart store: fetch store_id=%s count=%d", query.StoreID, len(out))
	return out, nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]domain.Cart, error) {
	const q = `
SELECT doc
FROM carts
ORDER BY id ASC
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("fetchAll", err)
	}
	defer rows.Close()

	return scanCartDocs(rows)
}

func scanCartDocs(rows pgx.Rows) ([]domain.Cart, error) {
	out := []domain.Cart{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, storageErr("scan", err)
		}
		c, err := decodeCartDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan", err)
	}
	return out, nil
}

func decodeCartDoc(doc []byte) (*domain.Cart, error) {
	var c domain.Cart
	if err := json.Unmarshal(doc, &c); err != nil {
		// A row that no longer parses counts as a corrupt medium.
		return nil, storageErr("decode", err)
	}
	return &c, nil
}

// orderClause maps the sort key to SQL. Cart id breaks ties so every backend
// returns the same order for equal timestamps.
func orderClause(key domain.CartSort) string {
	switch key {
	case domain.SortCreatedAtAsc:
		return "created_at ASC, id ASC"
	case domain.SortUpdatedAtAsc:
		return "updated_at ASC, id ASC"
	case domain.SortUpdatedAtDesc:
		return "updated_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

// limitParam normalizes the query limit for SQL: nil and negative values mean
// unlimited (NULL), zero keeps its "empty result" meaning.
func limitParam(limit *int) any {
	if limit == nil || *limit < 0 {
		return nil
	}
	return int64(*limit)
}

func statusParam(statuses []domain.CartStatus) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}

package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"cartvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// LegacyStore speaks the normalized schema of the pre-document cart service:
// one row per cart, one row per item, money split into amount and currency
// columns. Deployments keep it around to read live legacy data and to let the
// migration copy that data into the document store.
type LegacyStore struct {
	pool *pgxpool.Pool
}

func NewLegacy(pool *pgxpool.Pool) *LegacyStore {
	return &LegacyStore{pool: pool}
}

const legacyCartColumns = `id, store_id, profile_id, session_id, status, name, context, image_url,
       min_subtotal_amount, min_subtotal_currency, max_items, metadata, created_at, updated_at`

func (s *LegacyStore) Load(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM legacy_carts
WHERE id = $1
`, legacyCartColumns)

	rows, err := s.pool.Query(ctx, q, string(id))
	if err != nil {
		return nil, storageErr("load", err)
	}
	defer rows.Close()

	carts, err := scanLegacyCarts(rows)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, nil
	}

	c := carts[0]
	items, err := s.itemsFor(ctx, []domain.CartID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Items = items[c.ID]
	return &c, nil
}

func (s *LegacyStore) Save(ctx context.Context, c domain.Cart) error {
	const upsert = `
INSERT INTO legacy_carts (id, store_id, profile_id, session_id, status, name, context, image_url,
                          min_subtotal_amount, min_subtotal_currency, max_items, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE
SET store_id = EXCLUDED.store_id,
    profile_id = EXCLUDED.profile_id,
    session_id = EXCLUDED.session_id,
    status = EXCLUDED.status,
    name = EXCLUDED.name,
    context = EXCLUDED.context,
    image_url = EXCLUDED.image_url,
    min_subtotal_amount = EXCLUDED.min_subtotal_amount,
    min_subtotal_currency = EXCLUDED.min_subtotal_currency,
    max_items = EXCLUDED.max_items,
    metadata = EXCLUDED.metadata,
    created_at = EXCLUDED.created_at,
    updated_at = EXCLUDED.updated_at
`
	const clearItems = `
DELETE FROM legacy_cart_items
WHERE cart_id = $1
`
	const insertItem = `
INSERT INTO legacy_cart_items (cart_id, position, id, product_ref, quantity,
                               unit_amount, unit_currency, total_amount, total_currency, modifiers, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	record := c.Clone()

	var (
		minAmount   *decimal.Decimal
		minCurrency *string
	)
	if record.MinSubtotal != nil {
		minAmount = &record.MinSubtotal.Amount
		code := record.MinSubtotal.Currency.String()
		minCurrency = &code
	}
	metadata, err := jsonParam(record.Metadata, len(record.Metadata) > 0)
	if err != nil {
		return storageErr("save", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("save", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, upsert,
		string(record.ID),
		string(record.StoreID),
		(*string)(record.ProfileID),
		(*string)(record.SessionID),
		string(record.Status),
		record.Name,
		record.Context,
		record.ImageURL,
		minAmount,
		minCurrency,
		record.MaxItems,
		metadata,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return storageErr("save", err)
	}

	// A save replaces the whole record, items included.
	if _, err := tx.Exec(ctx, clearItems, string(record.ID)); err != nil {
		return storageErr("save", err)
	}
	for i, item := range record.Items {
		modifiers, err := jsonParam(item.Modifiers, len(item.Modifiers) > 0)
		if err != nil {
			return storageErr("save", err)
		}
		_, err = tx.Exec(ctx, insertItem,
			string(record.ID),
			i,
			string(item.ID),
			item.ProductRef,
			item.Quantity,
			item.UnitPrice.Amount,
			item.UnitPrice.Currency.String(),
			item.TotalPrice.Amount,
			item.TotalPrice.Currency.String(),
			modifiers,
			item.ImageURL,
		)
		if err != nil {
			return storageErr("save", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("save", err)
	}
	return nil
}

func (s *LegacyStore) Delete(ctx context.Context, id domain.CartID) error {
	const q = `
DELETE FROM legacy_carts
WHERE id = $1
`
	if _, err := s.pool.Exec(ctx, q, string(id)); err != nil {
		return storageErr("delete", err)
	}
	return nil
}

func (s *LegacyStore) FetchMany(ctx context.Context, query domain.CartQuery) ([]domain.Cart, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM legacy_carts
WHERE store_id = $1
  AND (($2::text IS NULL AND profile_id IS NULL) OR profile_id = $2::text)
  AND ($3::text[] IS NULL OR status = ANY($3::text[]))
ORDER BY %s
LIMIT $4::bigint
`, legacyCartColumns, orderClause(query.Sort))

	rows, err := s.pool.Query(ctx, q,
		string(query.StoreID),
		(*string)(query.ProfileID),
		statusParam(query.Statuses),
		limitParam(query.Limit),
	)
	if err != nil {
		return nil, storageErr("fetchMany", err)
	}
	defer rows.Close()

	carts, err := scanLegacyCarts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, carts)
}

func (s *LegacyStore) FetchAll(ctx context.Context) ([]domain.Cart, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM legacy_carts
ORDER BY id ASC
`, legacyCartColumns)

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("fetchAll", err)
	}
	defer rows.Close()

	carts, err := scanLegacyCarts(rows)
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, carts)
}

func (s *LegacyStore) attachItems(ctx context.Context, carts []domain.Cart) ([]domain.Cart, error) {
	if len(carts) == 0 {
		return carts, nil
	}
	ids := make([]domain.CartID, len(carts))
	for i, c := range carts {
		ids[i] = c.ID
	}
	items, err := s.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range carts {
		carts[i].Items = items[carts[i].ID]
	}
	return carts, nil
}

func (s *LegacyStore) itemsFor(ctx context.Context, ids []domain.CartID) (map[domain.CartID][]domain.CartItem, error) {
	const q = `
SELECT cart_id, id, product_ref, quantity, unit_amount, unit_currency, total_amount, total_currency, modifiers, image_url
FROM legacy_cart_items
WHERE cart_id = ANY($1::text[])
ORDER BY cart_id, position
`
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	rows, err := s.pool.Query(ctx, q, keys)
	if err != nil {
		return nil, storageErr("load", err)
	}
	defer rows.Close()

	out := map[domain.CartID][]domain.CartItem{}
	for rows.Next() {
		var (
			cartID                      string
			item                        domain.CartItem
			unitAmount, totalAmount     decimal.Decimal
			unitCurrency, totalCurrency string
			modifiers                   []byte
		)
		err := rows.Scan(&cartID, &item.ID, &item.ProductRef, &item.Quantity,
			&unitAmount, &unitCurrency, &totalAmount, &totalCurrency, &modifiers, &item.ImageURL)
		if err != nil {
			return nil, storageErr("scan", err)
		}
		if item.UnitPrice, err = legacyMoney(unitAmount, unitCurrency); err != nil {
			return nil, err
		}
		if item.TotalPrice, err = legacyMoney(totalAmount, totalCurrency); err != nil {
			return nil, err
		}
		if len(modifiers) > 0 {
			var mods []domain.ItemModifier
			if err := json.Unmarshal(modifiers, &mods); err != nil {
				return nil, storageErr("decode", err)
			}
			if len(mods) > 0 {
				item.Modifiers = mods
			}
		}
		out[domain.CartID(cartID)] = append(out[domain.CartID(cartID)], item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan", err)
	}
	return out, nil
}

func scanLegacyCarts(rows pgx.Rows) ([]domain.Cart, error) {
	out := []domain.Cart{}
	for rows.Next() {
		var (
			c                    domain.Cart
			profileID, sessionID *string
			minAmount            *decimal.Decimal
			minCurrency          *string
			metadata             []byte
		)
		err := rows.Scan(&c.ID, &c.StoreID, &profileID, &sessionID, &c.Status,
			&c.Name, &c.Context, &c.ImageURL,
			&minAmount, &minCurrency, &c.MaxItems, &metadata,
			&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, storageErr("scan", err)
		}
		c.ProfileID = (*domain.ProfileID)(profileID)
		c.SessionID = (*domain.SessionID)(sessionID)
		if minAmount != nil && minCurrency != nil {
			m, err := legacyMoney(*minAmount, *minCurrency)
			if err != nil {
				return nil, err
			}
			c.MinSubtotal = &m
		}
		if len(metadata) > 0 {
			m := map[string]string{}
			if err := json.Unmarshal(metadata, &m); err != nil {
				return nil, storageErr("decode", err)
			}
			if len(m) > 0 {
				c.Metadata = m
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan", err)
	}
	return out, nil
}

func legacyMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, storageErr("decode", err)
	}
	return domain.Money{Amount: amount, Currency: unit}, nil
}

// jsonParam marshals v for a nullable JSONB column. Absent collections store
// as NULL so a round trip hands back nil, not an empty container.
func jsonParam(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

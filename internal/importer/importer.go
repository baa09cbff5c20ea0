package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cartvault/internal/domain"
)

// CartWriter is the slice of the storage port the importer needs.
type CartWriter interface {
	Save(ctx context.Context, c domain.Cart) error
}

// Importer streams a JSON array of cart documents into a storage backend.
// Records use the same shape the API serves, and every save is a full-record
// upsert, so re-importing a file is safe.
type Importer struct {
	dec   *json.Decoder
	store CartWriter
	now   func() time.Time
}

func New(r io.Reader, store CartWriter) *Importer {
	return &Importer{
		dec:   json.NewDecoder(r),
		store: store,
		now:   time.Now,
	}
}

// Run decodes and saves every record, stopping at the first invalid one. The
// returned count is the number of carts written before any failure.
func (i *Importer) Run(ctx context.Context) (int, error) {
	if err := i.expectDelim(json.Delim('[')); err != nil {
		return 0, err
	}

	imported := 0
	for i.dec.More() {
		var c domain.Cart
		if err := i.dec.Decode(&c); err != nil {
			return imported, fmt.Errorf("decode record %d: %w", imported, err)
		}
		if err := i.prepare(&c); err != nil {
			return imported, fmt.Errorf("record %d: %w", imported, err)
		}
		if err := i.store.Save(ctx, c); err != nil {
			return imported, fmt.Errorf("save cart %s: %w", c.ID, err)
		}
		imported++
	}

	if err := i.expectDelim(json.Delim(']')); err != nil {
		return imported, err
	}
	return imported, nil
}

func (i *Importer) expectDelim(want json.Delim) error {
	tok, err := i.dec.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}

// prepare fills generated fields and checks what the storage port will not.
func (i *Importer) prepare(c *domain.Cart) error {
	if c.ID == "" {
		c.ID = domain.NewCartID()
	}
	if c.StoreID == "" {
		return fmt.Errorf("storeId required for cart %s", c.ID)
	}
	if c.Status == "" {
		c.Status = domain.CartStatusActive
	}
	if !c.Status.Valid() {
		return fmt.Errorf("unsupported status %q for cart %s", c.Status, c.ID)
	}

	now := i.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	for idx := range c.Items {
		item := &c.Items[idx]
		if item.ProductRef == "" {
			return fmt.Errorf("productRef required on item %d of cart %s", idx, c.ID)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive on item %d of cart %s", idx, c.ID)
		}
		if item.ID == "" {
			item.ID = domain.NewItemID()
		}
		if item.TotalPrice.IsZero() {
			item.TotalPrice = item.UnitPrice.Mul(item.Quantity)
		}
	}
	return nil
}

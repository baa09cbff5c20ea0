package domain

import (
	"slices"
	"sort"
)

// CartSort selects the FetchMany ordering. Ties on the sort key break by cart
// id ascending so every backend returns the same order.
type CartSort string

const (
	SortCreatedAtAsc  CartSort = "createdAtAsc"
	SortCreatedAtDesc CartSort = "createdAtDesc"
	SortUpdatedAtAsc  CartSort = "updatedAtAsc"
	SortUpdatedAtDesc CartSort = "updatedAtDesc"
)

func (s CartSort) Valid() bool {
	switch s {
	case SortCreatedAtAsc, SortCreatedAtDesc, SortUpdatedAtAsc, SortUpdatedAtDesc:
		return true
	}
	return false
}

// CartQuery filters carts within one store. ProfileID nil matches guest carts
// only (records whose ProfileID is nil), never "any profile". An empty status
// list matches every status. Limit nil means unlimited, zero yields an empty
// result, and a negative value is treated as unlimited.
type CartQuery struct {
	StoreID   StoreID      `json:"storeId"`
	ProfileID *ProfileID   `json:"profileId,omitempty"`
	Statuses  []CartStatus `json:"statuses,omitempty"`
	Sort      CartSort     `json:"sort,omitempty"`
	Limit     *int         `json:"limit,omitempty"`
}

// Matches reports whether the cart passes the store, scope and status filters.
func (q CartQuery) Matches(c Cart) bool {
	if c.StoreID != q.StoreID {
		return false
	}
	if q.ProfileID == nil {
		if c.ProfileID != nil {
			return false
		}
	} else {
		if c.ProfileID == nil || *c.ProfileID != *q.ProfileID {
			return false
		}
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, c.Status) {
		return false
	}
	return true
}

// Apply runs the full query pipeline over carts: filter, sort, truncate. The
// SQL adapters mirror exactly these semantics; the conformance suite keeps the
// implementations aligned.
func (q CartQuery) Apply(carts []Cart) []Cart {
	out := make([]Cart, 0, len(carts))
	for _, c := range carts {
		if q.Matches(c) {
			out = append(out, c)
		}
	}
	SortCarts(out, q.Sort)
	return TruncateCarts(out, q.Limit)
}

// SortCarts orders carts in place by the requested key, defaulting to
// createdAtDesc, with id ascending as the tie-break.
func SortCarts(carts []Cart, key CartSort) {
	if key == "" {
		key = SortCreatedAtDesc
	}
	sort.SliceStable(carts, func(i, j int) bool {
		a, b := carts[i], carts[j]
		var before, after bool
		switch key {
		case SortCreatedAtAsc:
			before, after = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.After(b.CreatedAt)
		case SortCreatedAtDesc:
			before, after = a.CreatedAt.After(b.CreatedAt), a.CreatedAt.Before(b.CreatedAt)
		case SortUpdatedAtAsc:
			before, after = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.After(b.UpdatedAt)
		case SortUpdatedAtDesc:
			before, after = a.UpdatedAt.After(b.UpdatedAt), a.UpdatedAt.Before(b.UpdatedAt)
		}
		if before {
			return true
		}
		if after {
			return false
		}
		return a.ID < b.ID
	})
}

// TruncateCarts applies the result limit: nil or negative means unlimited,
// zero means none.
func TruncateCarts(carts []Cart, limit *int) []Cart {
	if limit == nil || *limit < 0 {
		return carts
	}
	if *limit >= len(carts) {
		return carts
	}
	return carts[:*limit]
}

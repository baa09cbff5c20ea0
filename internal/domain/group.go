package domain

import "sort"

// ActiveCartGroup is the read-only set of carts sharing one checkout session
// across stores. It is assembled per request, never persisted.
type ActiveCartGroup struct {
	SessionID SessionID `json:"sessionId"`
	Carts     []Cart    `json:"carts"`
}

// EligibleCarts returns the carts that participate in group pricing and
// validation: all of them when includeEmpty is set, otherwise only carts with
// at least one item.
func EligibleCarts(carts []Cart, includeEmpty bool) []Cart {
	if includeEmpty {
		return carts
	}
	out := make([]Cart, 0, len(carts))
	for _, c := range carts {
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}

// DuplicateStoreIDs returns, sorted, every store that appears more than once
// among carts. A non-empty result signals a violated one-active-cart-per-store
// invariant; detection only, resolution is the caller's call.
func DuplicateStoreIDs(carts []Cart) []StoreID {
	seen := make(map[StoreID]int, len(carts))
	for _, c := range carts {
		seen[c.StoreID]++
	}
	var out []StoreID
	for id, n := range seen {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StoreVerdict is one store's validation outcome. CheckoutVerdict produces it
// from the cart's own constraints; richer validation engines may substitute
// their own verdicts.
type StoreVerdict string

const (
	VerdictValid   StoreVerdict = "valid"
	VerdictInvalid StoreVerdict = "invalid"
)

// CheckoutVerdict checks the cart against its own constraints: the minimum
// subtotal and the maximum unit count, when set. Constraint currencies are
// assumed to match the item currency.
func (c Cart) CheckoutVerdict() StoreVerdict {
	if c.MinSubtotal != nil && c.Subtotal().Amount.LessThan(c.MinSubtotal.Amount) {
		return VerdictInvalid
	}
	if c.MaxItems != nil && c.UnitCount() > *c.MaxItems {
		return VerdictInvalid
	}
	return VerdictValid
}

// CheckoutGroupValidationResult folds per-store verdicts into one group
// answer. Derived, never persisted.
type CheckoutGroupValidationResult struct {
	ProfileID ProfileID                `json:"profileId"`
	SessionID SessionID                `json:"sessionId"`
	PerStore  map[StoreID]StoreVerdict `json:"perStore"`
}

// IsValid is true iff no per-store verdict is invalid; an empty map is
// vacuously valid.
func (r CheckoutGroupValidationResult) IsValid() bool {
	for _, v := range r.PerStore {
		if v == VerdictInvalid {
			return false
		}
	}
	return true
}

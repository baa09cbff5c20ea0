package domain

import "time"

// Guest-to-profile transfer rules. These are pure decisions over values the
// caller already loaded; persisting the moved cart stays with the caller.

// RequireGuestActiveCart returns candidate when it is an active guest cart for
// storeID. candidate nil means the caller found no cart at all.
func RequireGuestActiveCart(candidate *Cart, storeID StoreID) (*Cart, error) {
	if candidate == nil {
		return nil, conflictf("no active guest cart for store %s", storeID)
	}
	if candidate.StoreID != storeID {
		return nil, conflictf("cart %s belongs to store %s, not %s", candidate.ID, candidate.StoreID, storeID)
	}
	if !candidate.IsGuest() {
		return nil, conflictf("cart %s is not guest-scoped", candidate.ID)
	}
	if !candidate.IsActive() {
		return nil, conflictf("cart %s is not active (status %s)", candidate.ID, candidate.Status)
	}
	return candidate, nil
}

// ValidateTargetScopeEmpty fails when the profile already holds an active cart
// at storeID. existing is the caller's query result for that scope, possibly
// nil. The policy never overwrites or merges; a merge strategy would be a
// separate extension.
func ValidateTargetScopeEmpty(existing *Cart, storeID StoreID, profileID ProfileID) error {
	if existing != nil && existing.IsActive() {
		return conflictf("profile %s already has active cart %s at store %s", profileID, existing.ID, storeID)
	}
	return nil
}

// MovedCart rescopes source to profileID: same id, store, items, createdAt and
// optional fields, with UpdatedAt advanced to now. The id is unchanged, so
// saving the result replaces the guest record outright; nothing is left behind
// in the guest scope.
func MovedCart(source Cart, profileID ProfileID, now time.Time) Cart {
	moved := source.Clone()
	moved.ProfileID = &profileID
	moved.Touch(now)
	return moved
}

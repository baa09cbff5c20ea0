package domain

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusCheckedOut CartStatus = "checkedOut"
	CartStatusCancelled  CartStatus = "cancelled"
	CartStatusExpired    CartStatus = "expired"
)

func (s CartStatus) Valid() bool {
	switch s {
	case CartStatusActive, CartStatusCheckedOut, CartStatusCancelled, CartStatusExpired:
		return true
	}
	return false
}

// ItemModifier adjusts a line item's price (gift wrap, engraving, ...).
type ItemModifier struct {
	Name       string `json:"name"`
	PriceDelta Money  `json:"priceDelta"`
}

type CartItem struct {
	ID         ItemID         `json:"id"`
	ProductRef string         `json:"productRef"`
	Quantity   int            `json:"quantity"`
	UnitPrice  Money          `json:"unitPrice"`
	TotalPrice Money          `json:"totalPrice"`
	Modifiers  []ItemModifier `json:"modifiers,omitempty"`
	ImageURL   *string        `json:"imageUrl,omitempty"`
}

// NewCartItem defaults TotalPrice to UnitPrice times quantity. A pricing
// engine may overwrite TotalPrice afterwards.
func NewCartItem(productRef string, quantity int, unitPrice Money) CartItem {
	return CartItem{
		ID:         NewItemID(),
		ProductRef: productRef,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(quantity),
	}
}

// Cart is the stored record. ID and StoreID never change after creation; every
// mutation goes through Touch so UpdatedAt never moves backwards.
type Cart struct {
	ID          CartID            `json:"id"`
	StoreID     StoreID           `json:"storeId"`
	ProfileID   *ProfileID        `json:"profileId,omitempty"`
	SessionID   *SessionID        `json:"sessionId,omitempty"`
	Items       []CartItem        `json:"items"`
	Status      CartStatus        `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Name        *string           `json:"name,omitempty"`
	Context     *string           `json:"context,omitempty"`
	ImageURL    *string           `json:"imageUrl,omitempty"`
	MinSubtotal *Money            `json:"minSubtotal,omitempty"`
	MaxItems    *int              `json:"maxItems,omitempty"`
}

// NewCart creates an active cart scoped to storeID. profileID nil means the
// cart belongs to the guest scope.
func NewCart(storeID StoreID, profileID *ProfileID, now time.Time) Cart {
	return Cart{
		ID:        NewCartID(),
		StoreID:   storeID,
		ProfileID: profileID,
		Status:    CartStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch advances UpdatedAt without ever moving it backwards.
func (c *Cart) Touch(now time.Time) {
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}

func (c Cart) IsGuest() bool { return c.ProfileID == nil }

func (c Cart) IsActive() bool { return c.Status == CartStatusActive }

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// UnitCount sums item quantities.
func (c Cart) UnitCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums item totals. Items are assumed to share one currency.
func (c Cart) Subtotal() Money {
	var total Money
	for i, item := range c.Items {
		if i == 0 {
			total = item.TotalPrice
			continue
		}
		total = total.Add(item.TotalPrice)
	}
	return total
}

// Clone returns a deep copy sharing no mutable state with the original.
// Empty collections canonicalize to nil so a cart compares equal across
// storage round-trips that cannot tell empty from absent.
func (c Cart) Clone() Cart {
	out := c
	out.ProfileID = clonePtr(c.ProfileID)
	out.SessionID = clonePtr(c.SessionID)
	out.Name = clonePtr(c.Name)
	out.Context = clonePtr(c.Context)
	out.ImageURL = clonePtr(c.ImageURL)
	out.MaxItems = clonePtr(c.MaxItems)
	out.MinSubtotal = clonePtr(c.MinSubtotal)
	out.Items = nil
	if len(c.Items) > 0 {
		out.Items = make([]CartItem, len(c.Items))
		for i, item := range c.Items {
			out.Items[i] = item.clone()
		}
	}
	out.Metadata = nil
	if len(c.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func (it CartItem) clone() CartItem {
	out := it
	out.ImageURL = clonePtr(it.ImageURL)
	out.Modifiers = nil
	if len(it.Modifiers) > 0 {
		out.Modifiers = make([]ItemModifier, len(it.Modifiers))
		copy(out.Modifiers, it.Modifiers)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package cart

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
)

// Service owns the runtime cart operations. It speaks only the storage port,
// so it behaves identically over every backend.
type Service struct {
	store  cartrepo.Store
	logger *log.Logger
	now    func() time.Time
}

func New(store cartrepo.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

type CreateInput struct {
	ProfileID *string           `json:"profileId,omitempty"`
	SessionID *string           `json:"sessionId,omitempty"`
	Items     []ItemInput       `json:"items,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Name      *string           `json:"name,omitempty"`
	Context   *string           `json:"context,omitempty"`
}

type ItemInput struct {
	ProductRef string       `json:"productRef"`
	Quantity   int          `json:"quantity"`
	UnitPrice  domain.Money `json:"unitPrice"`
	ImageURL   *string      `json:"imageUrl,omitempty"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

type UpdateAction struct {
	Action     string            `json:"action"`
	ProductRef string            `json:"productRef,omitempty"`
	ItemID     string            `json:"itemId,omitempty"`
	Quantity   int               `json:"quantity,omitempty"`
	UnitPrice  *domain.Money     `json:"unitPrice,omitempty"`
	Status     string            `json:"status,omitempty"`
	Name       *string           `json:"name,omitempty"`
	Context    *string           `json:"context,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type TransferInput struct {
	ProfileID string  `json:"profileId"`
	CartID    *string `json:"cartId,omitempty"`
}

func (s *Service) Create(ctx context.Context, storeID domain.StoreID, in CreateInput) (*domain.Cart, error) {
	if storeID == "" {
		return nil, &domain.ValidationError{Reason: "storeId required"}
	}

	var profileID *domain.ProfileID
	if in.ProfileID != nil && *in.ProfileID != "" {
		profileID = (*domain.ProfileID)(in.ProfileID)
	}

	c := domain.NewCart(storeID, profileID, s.now())
	if in.SessionID != nil && *in.SessionID != "" {
		c.SessionID = (*domain.SessionID)(in.SessionID)
	}
	c.Metadata = in.Metadata
	c.Name = in.Name
	c.Context = in.Context

	for _, item := range in.Items {
		built, err := buildItem(item)
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, built)
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Printf("cart %s created in store %s", c.ID, storeID)
	return &c, nil
}

func (s *Service) Get(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	c, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id domain.CartID, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, &domain.ValidationError{Reason: "actions required"}
	}

	c, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}

	for _, action := range in.Actions {
		if err := applyAction(c, action); err != nil {
			return nil, err
		}
	}

	c.Touch(s.now())
	if err := s.store.Save(ctx, *c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id domain.CartID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Query(ctx context.Context, q domain.CartQuery) ([]domain.Cart, error) {
	if q.StoreID == "" {
		return nil, &domain.ValidationError{Reason: "storeId required"}
	}
	if q.Sort != "" && !q.Sort.Valid() {
		return nil, &domain.ValidationError{Reason: "unsupported sort " + string(q.Sort)}
	}
	for _, status := range q.Statuses {
		if !status.Valid() {
			return nil, &domain.ValidationError{Reason: "unsupported status " + string(status)}
		}
	}
	return s.store.FetchMany(ctx, q)
}

// TransferGuestCart rescopes a guest cart to a profile. The moved cart keeps
// its id, so saving it replaces the guest record in one write; there is no
// separate original left behind.
func (s *Service) TransferGuestCart(ctx context.Context, storeID domain.StoreID, in TransferInput) (*domain.Cart, error) {
	if storeID == "" {
		return nil, &domain.ValidationError{Reason: "storeId required"}
	}
	profileID := domain.ProfileID(strings.TrimSpace(in.ProfileID))
	if profileID == "" {
		return nil, &domain.ValidationError{Reason: "profileId required"}
	}

	candidate, err := s.transferCandidate(ctx, storeID, in.CartID)
	if err != nil {
		return nil, err
	}
	source, err := domain.RequireGuestActiveCart(candidate, storeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.activeCartFor(ctx, storeID, &profileID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTargetScopeEmpty(existing, storeID, profileID); err != nil {
		return nil, err
	}

	moved := domain.MovedCart(*source, profileID, s.now())
	if err := s.store.Save(ctx, moved); err != nil {
		return nil, err
	}
	s.logger.Printf("cart %s moved to profile %s in store %s", moved.ID, profileID, storeID)
	return &moved, nil
}

// transferCandidate picks the cart to move: the explicitly named one, or the
// most recently updated active guest cart in the store.
func (s *Service) transferCandidate(ctx context.Context, storeID domain.StoreID, cartID *string) (*domain.Cart, error) {
	if cartID != nil && *cartID != "" {
		return s.store.Load(ctx, domain.CartID(*cartID))
	}
	return s.activeCartFor(ctx, storeID, nil)
}

func (s *Service) activeCartFor(ctx context.Context, storeID domain.StoreID, profileID *domain.ProfileID) (*domain.Cart, error) {
	one := 1
	carts, err := s.store.FetchMany(ctx, domain.CartQuery{
		StoreID:   storeID,
		ProfileID: profileID,
		Statuses:  []domain.CartStatus{domain.CartStatusActive},
		Sort:      domain.SortUpdatedAtDesc,
		Limit:     &one,
	})
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, nil
	}
	return &carts[0], nil
}

func buildItem(in ItemInput) (domain.CartItem, error) {
	if strings.TrimSpace(in.ProductRef) == "" {
		return domain.CartItem{}, &domain.ValidationError{Reason: "productRef required"}
	}
	if in.Quantity <= 0 {
		return domain.CartItem{}, &domain.ValidationError{Reason: "quantity must be positive"}
	}
	item := domain.NewCartItem(in.ProductRef, in.Quantity, in.UnitPrice)
	item.ImageURL = in.ImageURL
	return item, nil
}

func applyAction(c *domain.Cart, action UpdateAction) error {
	switch strings.ToLower(strings.TrimSpace(action.Action)) {
	case "additem":
		if action.UnitPrice == nil {
			return &domain.ValidationError{Reason: "unitPrice required"}
		}
		item, err := buildItem(ItemInput{
			ProductRef: action.ProductRef,
			Quantity:   action.Quantity,
			UnitPrice:  *action.UnitPrice,
		})
		if err != nil {
			return err
		}
		c.Items = append(c.Items, item)
	case "changeitemquantity":
		if action.ItemID == "" {
			return &domain.ValidationError{Reason: "itemId required"}
		}
		if action.Quantity <= 0 {
			return &domain.ValidationError{Reason: "quantity must be positive"}
		}
		item := findItem(c, domain.ItemID(action.ItemID))
		if item == nil {
			return &domain.ValidationError{Reason: "unknown itemId " + action.ItemID}
		}
		item.Quantity = action.Quantity
		item.TotalPrice = item.UnitPrice.Mul(action.Quantity)
	case "removeitem":
		if action.ItemID == "" {
			return &domain.ValidationError{Reason: "itemId required"}
		}
		kept := c.Items[:0]
		found := false
		for _, item := range c.Items {
			if item.ID == domain.ItemID(action.ItemID) {
				found = true
				continue
			}
			kept = append(kept, item)
		}
		if !found {
			return &domain.ValidationError{Reason: "unknown itemId " + action.ItemID}
		}
		c.Items = kept
	case "setstatus":
		status := domain.CartStatus(action.Status)
		if !status.Valid() {
			return &domain.ValidationError{Reason: "unsupported status " + action.Status}
		}
		c.Status = status
	case "setname":
		c.Name = action.Name
	case "setcontext":
		c.Context = action.Context
	case "setmetadata":
		c.Metadata = action.Metadata
	default:
		return &domain.ValidationError{Reason: "unsupported action " + action.Action}
	}
	return nil
}

func findItem(c *domain.Cart, id domain.ItemID) *domain.CartItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

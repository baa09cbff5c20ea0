package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
)

func testService(t *testing.T) (*Service, *cartrepo.MemoryStore) {
	t.Helper()
	store := cartrepo.NewMemory()
	svc := New(store, nil)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
	}
	return svc, store
}

func strRef(s string) *string { return &s }

func isValidation(err error) bool {
	var v *domain.ValidationError
	return errors.As(err, &v)
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	if _, err := svc.Create(ctx, "", CreateInput{}); !isValidation(err) {
		t.Fatalf("missing storeId: got %v", err)
	}

	_, err := svc.Create(ctx, "store-main", CreateInput{
		Items: []ItemInput{{ProductRef: "sku-1", Quantity: 0, UnitPrice: domain.MustMoney("5.00", "EUR")}},
	})
	if !isValidation(err) {
		t.Fatalf("zero quantity: got %v", err)
	}

	_, err = svc.Create(ctx, "store-main", CreateInput{
		Items: []ItemInput{{ProductRef: "  ", Quantity: 1, UnitPrice: domain.MustMoney("5.00", "EUR")}},
	})
	if !isValidation(err) {
		t.Fatalf("blank productRef: got %v", err)
	}
}

func TestCreatePersistsCart(t *testing.T) {
	ctx := context.Background()
	svc, store := testService(t)

	created, err := svc.Create(ctx, "store-main", CreateInput{
		ProfileID: strRef("profile-1"),
		SessionID: strRef("session-1"),
		Name:      strRef("weekly shop"),
		Metadata:  map[string]string{"channel": "web"},
		Items: []ItemInput{
			{ProductRef: "sku-1", Quantity: 3, UnitPrice: domain.MustMoney("9.99", "EUR")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created cart has no id")
	}
	if created.Status != domain.CartStatusActive {
		t.Fatalf("status %s, want active", created.Status)
	}
	if created.ProfileID == nil || *created.ProfileID != "profile-1" {
		t.Fatalf("profile %v, want profile-1", created.ProfileID)
	}
	if got := created.Items[0].TotalPrice; !got.Equal(domain.MustMoney("29.97", "EUR")) {
		t.Fatalf("item total %s, want 29.97 EUR", got)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatal("fresh cart has diverging timestamps")
	}

	stored, err := store.Load(ctx, created.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored == nil {
		t.Fatal("created cart not persisted")
	}
	if stored.Name == nil || *stored.Name != "weekly shop" {
		t.Fatalf("stored name %v", stored.Name)
	}
}

func TestCreateGuestCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	created, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.IsGuest() {
		t.Fatal("cart with no profile is not guest-scoped")
	}
}

func TestGetReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	_, err := svc.Get(ctx, domain.NewCartID())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateAppliesActions(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	created, err := svc.Create(ctx, "store-main", CreateInput{
		Items: []ItemInput{
			{ProductRef: "sku-1", Quantity: 1, UnitPrice: domain.MustMoney("10.00", "EUR")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	itemID := string(created.Items[0].ID)

	later := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	price := domain.MustMoney("4.50", "EUR")
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "addItem", ProductRef: "sku-2", Quantity: 2, UnitPrice: &price},
		{Action: "changeItemQuantity", ItemID: itemID, Quantity: 5},
		{Action: "setName", Name: strRef("renamed")},
		{Action: "setMetadata", Metadata: map[string]string{"origin": "app"}},
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(updated.Items) != 2 {
		t.Fatalf("items %d, want 2", len(updated.Items))
	}
	if got := updated.Items[0].Quantity; got != 5 {
		t.Fatalf("quantity %d, want 5", got)
	}
	if got := updated.Items[0].TotalPrice; !got.Equal(domain.MustMoney("50.00", "EUR")) {
		t.Fatalf("total %s, want 50.00 EUR", got)
	}
	if got := updated.Items[1].TotalPrice; !got.Equal(domain.MustMoney("9.00", "EUR")) {
		t.Fatalf("added item total %s, want 9.00 EUR", got)
	}
	if updated.Name == nil || *updated.Name != "renamed" {
		t.Fatalf("name %v", updated.Name)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("updatedAt %s, want %s", updated.UpdatedAt, later)
	}
	if !updated.CreatedAt.Before(updated.UpdatedAt) {
		t.Fatal("createdAt moved")
	}
}

func TestUpdateRemoveItemAndStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	created, err := svc.Create(ctx, "store-main", CreateInput{
		Items: []ItemInput{
			{ProductRef: "sku-1", Quantity: 1, UnitPrice: domain.MustMoney("10.00", "EUR")},
			{ProductRef: "sku-2", Quantity: 1, UnitPrice: domain.MustMoney("3.00", "EUR")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateInput{Actions: []UpdateAction{
		{Action: "removeItem", ItemID: string(created.Items[0].ID)},
		{Action: "setStatus", Status: "checkedOut"},
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 1 || updated.Items[0].ProductRef != "sku-2" {
		t.Fatalf("items after remove: %+v", updated.Items)
	}
	if updated.Status != domain.CartStatusCheckedOut {
		t.Fatalf("status %s, want checkedOut", updated.Status)
	}
}

func TestUpdateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	created, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []UpdateInput{
		{},
		{Actions: []UpdateAction{{Action: "explode"}}},
		{Actions: []UpdateAction{{Action: "setStatus", Status: "melted"}}},
		{Actions: []UpdateAction{{Action: "changeItemQuantity", ItemID: "nope", Quantity: 2}}},
		{Actions: []UpdateAction{{Action: "removeItem"}}},
		{Actions: []UpdateAction{{Action: "addItem", ProductRef: "sku-9", Quantity: 1}}},
	}
	for i, in := range cases {
		if _, err := svc.Update(ctx, created.ID, in); !isValidation(err) {
			t.Fatalf("case %d: got %v, want validation error", i, err)
		}
	}

	if _, err := svc.Update(ctx, domain.NewCartID(), UpdateInput{Actions: []UpdateAction{{Action: "setName"}}}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("absent cart: got %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	if err := svc.Delete(ctx, domain.NewCartID()); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	created, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestQueryValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	if _, err := svc.Query(ctx, domain.CartQuery{}); !isValidation(err) {
		t.Fatalf("missing storeId: %v", err)
	}
	if _, err := svc.Query(ctx, domain.CartQuery{StoreID: "store-main", Sort: "sideways"}); !isValidation(err) {
		t.Fatalf("bad sort: %v", err)
	}
	if _, err := svc.Query(ctx, domain.CartQuery{StoreID: "store-main", Statuses: []domain.CartStatus{"frozen"}}); !isValidation(err) {
		t.Fatalf("bad status: %v", err)
	}
}

func TestQueryReturnsGuestScope(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	guest, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if _, err := svc.Create(ctx, "store-main", CreateInput{ProfileID: strRef("profile-1")}); err != nil {
		t.Fatalf("create owned: %v", err)
	}

	carts, err := svc.Query(ctx, domain.CartQuery{StoreID: "store-main"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(carts) != 1 || carts[0].ID != guest.ID {
		t.Fatalf("guest query returned %+v", carts)
	}
}

func TestTransferGuestCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	guest, err := svc.Create(ctx, "store-main", CreateInput{
		Items: []ItemInput{{ProductRef: "sku-1", Quantity: 2, UnitPrice: domain.MustMoney("7.00", "EUR")}},
	})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}

	later := time.Date(2025, time.March, 14, 11, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	moved, err := svc.TransferGuestCart(ctx, "store-main", TransferInput{ProfileID: "profile-1"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved.ID != guest.ID {
		t.Fatalf("moved cart id %s, want %s", moved.ID, guest.ID)
	}
	if moved.ProfileID == nil || *moved.ProfileID != "profile-1" {
		t.Fatalf("moved profile %v", moved.ProfileID)
	}
	if !moved.CreatedAt.Equal(guest.CreatedAt) {
		t.Fatal("createdAt changed during move")
	}
	if moved.UpdatedAt.Before(guest.UpdatedAt) {
		t.Fatal("updatedAt moved backwards")
	}
	if len(moved.Items) != 1 {
		t.Fatalf("items %d, want 1", len(moved.Items))
	}

	// The guest scope no longer holds the cart.
	guests, err := svc.Query(ctx, domain.CartQuery{StoreID: "store-main", Statuses: []domain.CartStatus{domain.CartStatusActive}})
	if err != nil {
		t.Fatalf("guest query: %v", err)
	}
	if len(guests) != 0 {
		t.Fatalf("guest scope still holds %d carts", len(guests))
	}
}

func TestTransferConflictLeavesCartsUntouched(t *testing.T) {
	ctx := context.Background()
	svc, store := testService(t)

	guest, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	owned, err := svc.Create(ctx, "store-main", CreateInput{ProfileID: strRef("profile-1")})
	if err != nil {
		t.Fatalf("create owned: %v", err)
	}

	_, err = svc.TransferGuestCart(ctx, "store-main", TransferInput{ProfileID: "profile-1"})
	if !domain.IsConflict(err) {
		t.Fatalf("got %v, want conflict", err)
	}

	gotGuest, _ := store.Load(ctx, guest.ID)
	if gotGuest == nil || !gotGuest.IsGuest() {
		t.Fatalf("guest cart changed: %+v", gotGuest)
	}
	gotOwned, _ := store.Load(ctx, owned.ID)
	if gotOwned == nil || gotOwned.ProfileID == nil || *gotOwned.ProfileID != "profile-1" {
		t.Fatalf("owned cart changed: %+v", gotOwned)
	}
}

func TestTransferRequiresGuestCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	_, err := svc.TransferGuestCart(ctx, "store-main", TransferInput{ProfileID: "profile-1"})
	if !domain.IsConflict(err) {
		t.Fatalf("empty store: got %v, want conflict", err)
	}

	if _, err := svc.TransferGuestCart(ctx, "store-main", TransferInput{}); !isValidation(err) {
		t.Fatalf("missing profileId: got %v", err)
	}
	if _, err := svc.TransferGuestCart(ctx, "", TransferInput{ProfileID: "p"}); !isValidation(err) {
		t.Fatalf("missing storeId: got %v", err)
	}
}

func TestTransferExplicitCartID(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)

	first, err := svc.Create(ctx, "store-main", CreateInput{})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.Create(ctx, "store-main", CreateInput{}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	moved, err := svc.TransferGuestCart(ctx, "store-main", TransferInput{
		ProfileID: "profile-1",
		CartID:    strRef(string(first.ID)),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if moved.ID != first.ID {
		t.Fatalf("moved %s, want %s", moved.ID, first.ID)
	}

	// A cart from another store cannot be named explicitly.
	other, err := svc.Create(ctx, "store-other", CreateInput{})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	_, err = svc.TransferGuestCart(ctx, "store-main", TransferInput{
		ProfileID: "profile-2",
		CartID:    strRef(string(other.ID)),
	})
	if !domain.IsConflict(err) {
		t.Fatalf("cross-store transfer: got %v, want conflict", err)
	}
}

type failingStore struct {
	cartrepo.Store
	err error
}

func (s failingStore) Save(context.Context, domain.Cart) error { return s.err }

func TestStorageFailurePassesThrough(t *testing.T) {
	ctx := context.Background()
	stErr := &domain.StorageError{Op: "save", Err: errors.New("connection reset")}
	svc := New(failingStore{Store: cartrepo.NewMemory(), err: stErr}, nil)

	_, err := svc.Create(ctx, "store-main", CreateInput{})
	if !domain.IsStorageFailure(err) {
		t.Fatalf("got %v, want storage failure", err)
	}
}

// Package storetest holds the storage conformance suite. Backend test
// packages embed Suite and provide NewStore; the suite then checks the
// backend against the exact contract every other backend answers to, so the
// backends stay interchangeable.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cartvault/internal/domain"
	"cartvault/internal/repository/cart"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"
)

// Fixture timestamps stay at whole seconds so every storage medium
// round-trips them exactly.
var baseTime = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

type Suite struct {
	suite.Suite

	// NewStore returns an empty store ready for one test.
	NewStore func(t *testing.T) cart.SnapshotStore

	store cart.SnapshotStore
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore(s.T())
}

func (s *Suite) TestLoadAbsent() {
	got, err := s.store.Load(s.ctx, domain.NewCartID())
	s.Require().NoError(err)
	s.Require().Nil(got)
}

func (s *Suite) TestSaveLoadRoundTrip() {
	c := fixtureCart("store-main", profileRef("profile-1"), domain.CartStatusActive, baseTime)
	session := domain.SessionID("session-1")
	ctx := "registry"
	imageURL := "https://img.example/cart.png"
	minSubtotal := domain.MustMoney("25.00", "EUR")
	maxItems := 40
	c.SessionID = &session
	c.Context = &ctx
	c.ImageURL = &imageURL
	c.MinSubtotal = &minSubtotal
	c.MaxItems = &maxItems
	c.Metadata = map[string]string{"campaign": "spring", "channel": "web"}
	c.Items = []domain.CartItem{fixtureItem(), fixtureItem()}
	c.Items[0].Modifiers = []domain.ItemModifier{
		{Name: "gift wrap", PriceDelta: domain.MustMoney("2.50", "EUR")},
	}
	c.Items[1].ImageURL = &imageURL
	c.UpdatedAt = baseTime.Add(time.Minute)

	s.mustSave(c)

	got, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Empty(cartDiff(c, *got))
}

func (s *Suite) TestSaveLoadSparse() {
	c := domain.Cart{
		ID:        domain.NewCartID(),
		StoreID:   "store-main",
		Status:    domain.CartStatusActive,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	s.mustSave(c)

	got, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Empty(cartDiff(c, *got))
	s.Nil(got.Items)
	s.Nil(got.Metadata)
	s.Nil(got.ProfileID)
	s.Nil(got.MinSubtotal)
}

func (s *Suite) TestSaveReplacesWholeRecord() {
	c := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	c.Items = []domain.CartItem{fixtureItem(), fixtureItem()}
	c.Metadata = map[string]string{"origin": "kiosk"}
	s.mustSave(c)

	next := c.Clone()
	next.Items = []domain.CartItem{fixtureItem()}
	next.Metadata = nil
	next.Name = nil
	next.Status = domain.CartStatusCheckedOut
	next.UpdatedAt = baseTime.Add(time.Hour)
	s.mustSave(next)

	got, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Empty(cartDiff(next, *got))
	s.Len(got.Items, 1)
	s.Nil(got.Metadata)
}

func (s *Suite) TestSaveCopiesInput() {
	c := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	s.mustSave(c)

	// Mutating the caller's value after the save must not leak into the
	// stored record, and vice versa.
	c.Items[0].Quantity = 999
	c.Status = domain.CartStatusCancelled

	got, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.NotEqual(999, got.Items[0].Quantity)
	s.Equal(domain.CartStatusActive, got.Status)

	got.Items[0].Quantity = 777
	again, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.NotEqual(777, again.Items[0].Quantity)
}

func (s *Suite) TestDeleteIsIdempotent() {
	s.Require().NoError(s.store.Delete(s.ctx, domain.NewCartID()))

	c := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	s.mustSave(c)
	s.Require().NoError(s.store.Delete(s.ctx, c.ID))

	got, err := s.store.Load(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Nil(got)

	s.Require().NoError(s.store.Delete(s.ctx, c.ID))
}

func (s *Suite) TestFetchManyScopes() {
	guest1 := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	guest2 := fixtureCart("store-main", nil, domain.CartStatusCancelled, baseTime.Add(time.Second))
	owned := fixtureCart("store-main", profileRef("profile-1"), domain.CartStatusActive, baseTime.Add(2*time.Second))
	other := fixtureCart("store-other", nil, domain.CartStatusActive, baseTime.Add(3*time.Second))
	s.mustSave(guest1, guest2, owned, other)

	guests, err := s.store.FetchMany(s.ctx, domain.CartQuery{StoreID: "store-main"})
	s.Require().NoError(err)
	s.ElementsMatch([]domain.CartID{guest1.ID, guest2.ID}, ids(guests))

	mine, err := s.store.FetchMany(s.ctx, domain.CartQuery{StoreID: "store-main", ProfileID: profileRef("profile-1")})
	s.Require().NoError(err)
	s.Equal([]domain.CartID{owned.ID}, ids(mine))

	nobody, err := s.store.FetchMany(s.ctx, domain.CartQuery{StoreID: "store-main", ProfileID: profileRef("profile-unknown")})
	s.Require().NoError(err)
	s.Empty(nobody)
}

func (s *Suite) TestFetchManyFiltersStatus() {
	active := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	cancelled := fixtureCart("store-main", nil, domain.CartStatusCancelled, baseTime.Add(time.Second))
	expired := fixtureCart("store-main", nil, domain.CartStatusExpired, baseTime.Add(2*time.Second))
	s.mustSave(active, cancelled, expired)

	got, err := s.store.FetchMany(s.ctx, domain.CartQuery{
		StoreID:  "store-main",
		Statuses: []domain.CartStatus{domain.CartStatusActive, domain.CartStatusExpired},
		Sort:     domain.SortCreatedAtAsc,
	})
	s.Require().NoError(err)
	s.Equal([]domain.CartID{active.ID, expired.ID}, ids(got))
}

func (s *Suite) TestFetchManySorts() {
	a := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(1*time.Second))
	b := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(2*time.Second))
	c := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(3*time.Second))
	a.UpdatedAt = baseTime.Add(6 * time.Second)
	b.UpdatedAt = baseTime.Add(5 * time.Second)
	c.UpdatedAt = baseTime.Add(4 * time.Second)
	s.mustSave(b, c, a)

	cases := []struct {
		sort domain.CartSort
		want []domain.CartID
	}{
		{domain.SortCreatedAtAsc, []domain.CartID{a.ID, b.ID, c.ID}},
		{domain.SortCreatedAtDesc, []domain.CartID{c.ID, b.ID, a.ID}},
		{domain.SortUpdatedAtAsc, []domain.CartID{c.ID, b.ID, a.ID}},
		{domain.SortUpdatedAtDesc, []domain.CartID{a.ID, b.ID, c.ID}},
	}
	for _, tc := range cases {
		s.Run(string(tc.sort), func() {
			got, err := s.store.FetchMany(s.ctx, domain.CartQuery{StoreID: "store-main", Sort: tc.sort})
			s.Require().NoError(err)
			s.Equal(tc.want, ids(got))
		})
	}
}

func (s *Suite) TestFetchManyLimits() {
	oldest := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(1*time.Second))
	middle := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(2*time.Second))
	newest := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime.Add(3*time.Second))
	s.mustSave(oldest, middle, newest)

	query := func(limit *int) []domain.CartID {
		got, err := s.store.FetchMany(s.ctx, domain.CartQuery{
			StoreID: "store-main",
			Sort:    domain.SortCreatedAtDesc,
			Limit:   limit,
		})
		s.Require().NoError(err)
		return ids(got)
	}

	s.Equal([]domain.CartID{newest.ID, middle.ID, oldest.ID}, query(nil))
	s.Equal([]domain.CartID{newest.ID, middle.ID}, query(limitRef(2)))
	s.Empty(query(limitRef(0)))
	s.Equal([]domain.CartID{newest.ID, middle.ID, oldest.ID}, query(limitRef(-1)))
}

func (s *Suite) TestFetchManyBreaksTiesByID() {
	first := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	second := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	third := fixtureCart("store-main", nil, domain.CartStatusActive, baseTime)
	first.ID, second.ID, third.ID = "tie-a", "tie-b", "tie-c"
	s.mustSave(third, first, second)

	for _, key := range []domain.CartSort{domain.SortCreatedAtAsc, domain.SortCreatedAtDesc} {
		got, err := s.store.FetchMany(s.ctx, domain.CartQuery{StoreID: "store-main", Sort: key})
		s.Require().NoError(err)
		s.Equal([]domain.CartID{"tie-a", "tie-b", "tie-c"}, ids(got))
	}
}

func (s *Suite) TestFetchAll() {
	carts := []domain.Cart{
		fixtureCart("store-main", nil, domain.CartStatusActive, baseTime),
		fixtureCart("store-main", profileRef("profile-1"), domain.CartStatusCheckedOut, baseTime.Add(time.Second)),
		fixtureCart("store-other", nil, domain.CartStatusExpired, baseTime.Add(2*time.Second)),
	}
	carts[0].ID, carts[1].ID, carts[2].ID = "dump-b", "dump-c", "dump-a"
	s.mustSave(carts...)

	got, err := s.store.FetchAll(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.CartID{"dump-a", "dump-b", "dump-c"}, ids(got))

	want := []domain.Cart{carts[2], carts[0], carts[1]}
	s.Empty(cartDiff(want, got))
}

func (s *Suite) mustSave(carts ...domain.Cart) {
	s.T().Helper()
	for _, c := range carts {
		s.Require().NoError(s.store.Save(s.ctx, c))
	}
}

// cartDiff compares carts by meaning: times by instant, currencies by code,
// decimals by value, empty collections equal to nil.
func cartDiff(want, got any) string {
	return cmp.Diff(want, got,
		cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b currency.Unit) bool { return a.String() == b.String() }),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.EquateEmpty(),
	)
}

func fixtureCart(storeID domain.StoreID, profileID *domain.ProfileID, status domain.CartStatus, created time.Time) domain.Cart {
	name := gofakeit.Word()
	return domain.Cart{
		ID:        domain.NewCartID(),
		StoreID:   storeID,
		ProfileID: profileID,
		Items:     []domain.CartItem{fixtureItem()},
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
		Name:      &name,
	}
}

func fixtureItem() domain.CartItem {
	price := domain.MustMoney(fmt.Sprintf("%.2f", gofakeit.Price(1, 200)), "EUR")
	return domain.NewCartItem(gofakeit.ProductName(), gofakeit.Number(1, 5), price)
}

func profileRef(id domain.ProfileID) *domain.ProfileID { return &id }

func limitRef(n int) *int { return &n }

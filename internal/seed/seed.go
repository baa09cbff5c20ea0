package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
)

// Apply inserts legacy carts for manual migration testing. Ids are fixed and
// saves are upserts, so reruns are idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	store := cartrepo.NewLegacy(pool)
	for _, c := range legacyCarts() {
		if err := store.Save(ctx, c); err != nil {
			return fmt.Errorf("save legacy cart %s: %w", c.ID, err)
		}
	}
	return nil
}

func legacyCarts() []domain.Cart {
	created := time.Date(2024, time.November, 5, 8, 0, 0, 0, time.UTC)
	profile := domain.ProfileID("profile-demo")
	session := domain.SessionID("session-demo")
	name := "weekly groceries"
	imageURL := "https://cdn.example.com/img/oat-milk.jpg"

	giftWrap := domain.CartItem{
		ID:         "legacy-item-candle",
		ProductRef: "sku-candle",
		Quantity:   2,
		UnitPrice:  domain.MustMoney("7.50", "EUR"),
		TotalPrice: domain.MustMoney("17.00", "EUR"),
		Modifiers: []domain.ItemModifier{
			{Name: "gift-wrap", PriceDelta: domain.MustMoney("1.00", "EUR")},
		},
	}
	oatMilk := domain.CartItem{
		ID:         "legacy-item-oat-milk",
		ProductRef: "sku-oat-milk",
		Quantity:   3,
		UnitPrice:  domain.MustMoney("2.20", "EUR"),
		TotalPrice: domain.MustMoney("6.60", "EUR"),
		ImageURL:   &imageURL,
	}

	weekly := domain.Cart{
		ID:        "legacy-cart-weekly-run",
		StoreID:   "store-demo",
		ProfileID: &profile,
		SessionID: &session,
		Status:    domain.CartStatusActive,
		Name:      &name,
		Items:     []domain.CartItem{giftWrap, oatMilk},
		Metadata:  map[string]string{"channel": "web", "campaign": "autumn"},
		CreatedAt: created,
		UpdatedAt: created.Add(10 * time.Minute),
	}

	minSubtotal := domain.MustMoney("15.00", "EUR")
	maxItems := 20
	guest := domain.Cart{
		ID:      "legacy-cart-window-shop",
		StoreID: "store-demo",
		Status:  domain.CartStatusActive,
		Items: []domain.CartItem{
			{
				ID:         "legacy-item-notebook",
				ProductRef: "sku-notebook",
				Quantity:   1,
				UnitPrice:  domain.MustMoney("4.90", "EUR"),
				TotalPrice: domain.MustMoney("4.90", "EUR"),
			},
		},
		MinSubtotal: &minSubtotal,
		MaxItems:    &maxItems,
		CreatedAt:   created.Add(time.Hour),
		UpdatedAt:   created.Add(time.Hour),
	}

	return []domain.Cart{weekly, guest}
}

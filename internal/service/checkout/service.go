package checkout

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"cartvault/internal/domain"
	cartrepo "cartvault/internal/repository/cart"
)

// Service assembles the active cart group for a (profile, session) scope and
// folds per-store validation into one verdict. Groups are derived per request
// and never persisted.
type Service struct {
	store  cartrepo.Store
	logger *log.Logger
}

func New(store cartrepo.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, logger: logger}
}

type GroupInput struct {
	ProfileID         string   `json:"profileId"`
	SessionID         string   `json:"sessionId"`
	StoreIDs          []string `json:"storeIds"`
	IncludeEmptyCarts bool     `json:"includeEmptyCarts"`
}

// ValidateGroup collects the session's active carts across the named stores
// and validates each against its own constraints. Duplicate active carts for
// one store are a conflict the caller must resolve before any batch
// operation.
func (s *Service) ValidateGroup(ctx context.Context, in GroupInput) (*domain.CheckoutGroupValidationResult, error) {
	profileID := domain.ProfileID(strings.TrimSpace(in.ProfileID))
	if profileID == "" {
		return nil, &domain.ValidationError{Reason: "profileId required"}
	}
	sessionID := domain.SessionID(strings.TrimSpace(in.SessionID))
	if sessionID == "" {
		return nil, &domain.ValidationError{Reason: "sessionId required"}
	}
	if len(in.StoreIDs) == 0 {
		return nil, &domain.ValidationError{Reason: "storeIds required"}
	}

	collected, err := s.collectSessionCarts(ctx, profileID, sessionID, in.StoreIDs)
	if err != nil {
		return nil, err
	}

	group := domain.ActiveCartGroup{
		SessionID: sessionID,
		Carts:     domain.EligibleCarts(collected, in.IncludeEmptyCarts),
	}
	if dups := domain.DuplicateStoreIDs(group.Carts); len(dups) > 0 {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("duplicate active carts for stores %v in session %s", dups, sessionID),
		}
	}

	result := &domain.CheckoutGroupValidationResult{
		ProfileID: profileID,
		SessionID: sessionID,
		PerStore:  make(map[domain.StoreID]domain.StoreVerdict, len(group.Carts)),
	}
	for _, c := range group.Carts {
		result.PerStore[c.StoreID] = c.CheckoutVerdict()
	}
	s.logger.Printf("checkout group session=%s carts=%d valid=%t", sessionID, len(group.Carts), result.IsValid())
	return result, nil
}

func (s *Service) collectSessionCarts(ctx context.Context, profileID domain.ProfileID, sessionID domain.SessionID, storeIDs []string) ([]domain.Cart, error) {
	var out []domain.Cart
	for _, raw := range dedupe(storeIDs) {
		storeID := domain.StoreID(raw)
		carts, err := s.store.FetchMany(ctx, domain.CartQuery{
			StoreID:   storeID,
			ProfileID: &profileID,
			Statuses:  []domain.CartStatus{domain.CartStatusActive},
			Sort:      domain.SortUpdatedAtDesc,
		})
		if err != nil {
			return nil, err
		}
		for _, c := range carts {
			if c.SessionID != nil && *c.SessionID == sessionID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package domain

import "github.com/google/uuid"

// Identifier types are opaque, comparable values. Adapters must treat them as
// whole keys and never derive backend-native representations from their
// contents.
type (
	CartID      string
	StoreID     string
	ProfileID   string
	SessionID   string
	ItemID      string
	MigrationID string
)

func NewCartID() CartID { return CartID(uuid.NewString()) }

func NewItemID() ItemID { return ItemID(uuid.NewString()) }

func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

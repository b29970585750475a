package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an append-only message for an account; only the read flag
// ever changes after insert.
type Notification struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	CreatedAt time.Time
	Topic     string
	Message   string
	IsRead    bool
}

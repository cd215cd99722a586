package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat record.
// SentAt is assigned by the server under the append gate, never by clients,
// and is non-decreasing in append order.
type Message struct {
	ID       uuid.UUID
	Username string
	Content  string
	Lang     string // ISO 639-1 code detected at submit time, may be empty
	SentAt   time.Time
}

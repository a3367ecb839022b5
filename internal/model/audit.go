package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditEntry struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Action     string
	EntityKind string
	EntityID   uuid.UUID
	Detail     string
	CreatedAt  time.Time
}

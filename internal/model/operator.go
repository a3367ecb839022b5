package model

import (
	"time"

	"github.com/google/uuid"
)

type Operator struct {
	ID           uuid.UUID
	DocumentID   string
	FullName     string
	LicenseClass string
	Active       bool
	CreatedAt    time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type RoleRequestStatus string

const (
	RoleRequestPending  RoleRequestStatus = "PENDING"
	RoleRequestApproved RoleRequestStatus = "APPROVED"
	RoleRequestRejected RoleRequestStatus = "REJECTED"
)

type RoleRequest struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	RequestedRole   Role
	Status          RoleRequestStatus
	RejectionReason *string
	DecidedByUserID *uuid.UUID
	DecidedAt       *time.Time
	CreatedAt       time.Time
}

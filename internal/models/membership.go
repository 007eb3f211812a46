package models

import (
	"errors"
	"fmt"
)

// Role describes a member's standing within a household.
type Role string

// Status tracks the lifecycle of a membership request.
type Status string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"

	// StatusPending marks an invitation or join request awaiting resolution.
	StatusPending Status = "PENDING"
	// StatusAccepted marks a confirmed member.
	StatusAccepted Status = "ACCEPTED"
	// StatusDeclined is transient: a declined entry is removed from the
	// household in the same operation and never persisted.
	StatusDeclined Status = "DECLINED"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusDeclined
}

// Membership is the (household, user) relationship record. A household's member
// list holds at most one entry per user; each user profile mirrors at most one
// of them.
type Membership struct {
	HouseholdID string `json:"householdId"`
	UserID      string `json:"userId"`
	Role        Role   `json:"householdRole"`
	Status      Status `json:"memberStatus"`
}

// Validate checks required fields and enum values.
func (m Membership) Validate() error {
	if m.HouseholdID == "" {
		return errors.New("membership: household id is required")
	}
	if m.UserID == "" {
		return errors.New("membership: user id is required")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("membership: invalid role %q", m.Role)
	}
	if !m.Status.Valid() {
		return fmt.Errorf("membership: invalid status %q", m.Status)
	}
	return nil
}

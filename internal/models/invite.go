package models

import (
	"errors"
	"time"
)

// Invite is an immutable audit record of an outbound household invitation. It
// is not part of the membership state machine.
type Invite struct {
	ID            string    `json:"id"`
	HouseholdID   string    `json:"householdId"`
	HouseholdName string    `json:"householdName"`
	InviteeUserID string    `json:"inviteeUserId"`
	InviterUserID string    `json:"inviterUserId"`
	CreatedAt     time.Time `json:"timestamp"`
}

// Validate checks required invite fields.
func (i Invite) Validate() error {
	switch {
	case i.HouseholdID == "":
		return errors.New("invite: household id is required")
	case i.InviteeUserID == "":
		return errors.New("invite: invitee user id is required")
	case i.InviterUserID == "":
		return errors.New("invite: inviter user id is required")
	}
	return nil
}

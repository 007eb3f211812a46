package models

import "errors"

// Household is a named group owning an ordered member list. Insertion order is
// preserved; the earliest surviving entry is promoted when the owner leaves.
type Household struct {
	ID      string       `json:"id"`
	Name    string       `json:"householdName"`
	Members []Membership `json:"members"`
}

// Validate checks required fields and every member entry.
func (h Household) Validate() error {
	if h.ID == "" {
		return errors.New("household: id is required")
	}
	if h.Name == "" {
		return errors.New("household: name is required")
	}
	for _, m := range h.Members {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.HouseholdID != h.ID {
			return errors.New("household: member entry belongs to a different household")
		}
	}
	return nil
}

// Member returns the entry for userID, if present.
func (h Household) Member(userID string) (Membership, bool) {
	for _, m := range h.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

// Orphaned reports whether the household has no accepted members left.
func (h Household) Orphaned() bool {
	for _, m := range h.Members {
		if m.Status == StatusAccepted {
			return false
		}
	}
	return true
}

package models

import "errors"

// UserProfile is the user-side document. Membership mirrors the entry currently
// relevant to the user in a household's member list, or is nil when none applies.
// The password hash round-trips through the record store; API payloads use
// UserDTO instead.
type UserProfile struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"displayName"`
	PasswordHash string      `json:"passwordHash,omitempty"`
	LoggedIn     bool        `json:"loggedIn"`
	Membership   *Membership `json:"householdMembership,omitempty"`
}

// Validate checks required profile fields and the mirror, when set.
func (u UserProfile) Validate() error {
	if u.ID == "" {
		return errors.New("user: id is required")
	}
	if u.Email == "" {
		return errors.New("user: email is required")
	}
	if u.DisplayName == "" {
		return errors.New("user: display name is required")
	}
	if u.Membership != nil {
		if err := u.Membership.Validate(); err != nil {
			return err
		}
		if u.Membership.UserID != u.ID {
			return errors.New("user: membership mirror belongs to a different user")
		}
	}
	return nil
}

// UserDTO is the outward-facing profile shape.
type UserDTO struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	LoggedIn    bool        `json:"loggedIn"`
	Membership  *Membership `json:"householdMembership,omitempty"`
}

// DTO strips credentials from the profile for API responses.
func (u UserProfile) DTO() UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		LoggedIn:    u.LoggedIn,
		Membership:  u.Membership,
	}
}

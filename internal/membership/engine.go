// Package membership holds the pure decision logic for household membership
// transitions. Every function takes an immutable snapshot of a household's
// member list and returns a new list; callers persist the result. Valid
// transitions are NONE -> PENDING -> {ACCEPTED, DECLINED}, ACCEPTED -> NONE and
// PENDING -> NONE. Only the initial owner entry starts directly at ACCEPTED.
package membership

import (
	"fmt"
	"net/http"

	"github.com/steviecodesit/ourhome/internal/models"
	apperrors "github.com/steviecodesit/ourhome/pkg/errors"
)

var (
	// ErrDuplicateMembership signals the user already has an entry in the household.
	ErrDuplicateMembership = apperrors.New("DUPLICATE_MEMBERSHIP", "User is already a member of this household", http.StatusConflict)
	// ErrNoPendingRequest signals no PENDING entry exists for the user.
	ErrNoPendingRequest = apperrors.New("NO_PENDING_REQUEST", "No pending request from the specified user", http.StatusBadRequest)
	// ErrNotAMember signals the user has no entry in the household.
	ErrNotAMember = apperrors.New("NOT_A_MEMBER", "User is not a member of the household", http.StatusBadRequest)
)

// NewOwner builds the initial ACCEPTED owner entry for a freshly created household.
func NewOwner(householdID, userID string) models.Membership {
	return models.Membership{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        models.RoleOwner,
		Status:      models.StatusAccepted,
	}
}

// Find returns the entry for userID, if present.
func Find(members []models.Membership, userID string) (models.Membership, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return models.Membership{}, false
}

// IsOwner reports whether userID holds the ACCEPTED owner entry.
func IsOwner(members []models.Membership, userID string) bool {
	m, ok := Find(members, userID)
	return ok && m.Role == models.RoleOwner && m.Status == models.StatusAccepted
}

// AddPending appends a PENDING entry for the user and returns the new list.
func AddPending(members []models.Membership, householdID, userID string, role models.Role) ([]models.Membership, models.Membership, error) {
	if _, exists := Find(members, userID); exists {
		return nil, models.Membership{}, ErrDuplicateMembership
	}

	entry := models.Membership{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
		Status:      models.StatusPending,
	}

	next := append(copyMembers(members), entry)
	if err := CheckOwnerInvariant(next); err != nil {
		return nil, models.Membership{}, err
	}
	return next, entry, nil
}

// ResolvePending settles the user's PENDING entry. ACCEPTED keeps the entry
// with its requested role; DECLINED removes it in the same step, so a declined
// entry is never part of a persisted list.
func ResolvePending(members []models.Membership, userID string, outcome models.Status) ([]models.Membership, models.Membership, error) {
	idx := -1
	for i, m := range members {
		if m.UserID == userID && m.Status == models.StatusPending {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, models.Membership{}, ErrNoPendingRequest
	}

	next := copyMembers(members)
	switch outcome {
	case models.StatusAccepted:
		next[idx].Status = models.StatusAccepted
	case models.StatusDeclined:
		next = append(next[:idx:idx], next[idx+1:]...)
	default:
		return nil, models.Membership{}, fmt.Errorf("membership: invalid resolution outcome %q", outcome)
	}

	resolved := members[idx]
	resolved.Status = outcome

	if err := CheckOwnerInvariant(next); err != nil {
		return nil, models.Membership{}, err
	}
	return next, resolved, nil
}

// Remove deletes the user's entry regardless of status and returns it.
func Remove(members []models.Membership, userID string) ([]models.Membership, models.Membership, error) {
	idx := -1
	for i, m := range members {
		if m.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, models.Membership{}, ErrNotAMember
	}

	removed := members[idx]
	next := copyMembers(members)
	next = append(next[:idx:idx], next[idx+1:]...)

	if err := CheckOwnerInvariant(next); err != nil {
		return nil, models.Membership{}, err
	}
	return next, removed, nil
}

// PromoteSuccessor assigns the owner role to the longest-standing remaining
// member, which is the entry at the lowest surviving index since insertion
// order is preserved. It returns the promoted entry, or nil when the household
// is left without members.
func PromoteSuccessor(members []models.Membership) ([]models.Membership, *models.Membership, error) {
	if len(members) == 0 {
		return members, nil, nil
	}

	next := copyMembers(members)
	next[0].Role = models.RoleOwner

	if err := CheckOwnerInvariant(next); err != nil {
		return nil, nil, err
	}
	promoted := next[0]
	return next, &promoted, nil
}

// CheckOwnerInvariant asserts at most one ACCEPTED owner entry and at most one
// entry per user. Violations indicate a bug or corrupted stored state and must
// abort the whole operation.
func CheckOwnerInvariant(members []models.Membership) error {
	owners := 0
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.UserID]; dup {
			return apperrors.Wrap(fmt.Errorf("duplicate entries for user %s", m.UserID), "household member list is inconsistent")
		}
		seen[m.UserID] = struct{}{}

		if m.Role == models.RoleOwner && m.Status == models.StatusAccepted {
			owners++
		}
	}
	if owners > 1 {
		return apperrors.Wrap(fmt.Errorf("%d accepted owners", owners), "household has more than one owner")
	}
	return nil
}

func copyMembers(members []models.Membership) []models.Membership {
	next := make([]models.Membership, len(members))
	copy(next, members)
	return next
}

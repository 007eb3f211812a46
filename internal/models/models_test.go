package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMembershipValidate(t *testing.T) {
	valid := Membership{HouseholdID: "h1", UserID: "u1", Role: RoleMember, Status: StatusPending}
	require.NoError(t, valid.Validate())

	cases := []Membership{
		{UserID: "u1", Role: RoleMember, Status: StatusPending},
		{HouseholdID: "h1", Role: RoleMember, Status: StatusPending},
		{HouseholdID: "h1", UserID: "u1", Role: "ADMIN", Status: StatusPending},
		{HouseholdID: "h1", UserID: "u1", Role: RoleMember, Status: "WAITING"},
	}
	for _, m := range cases {
		require.Error(t, m.Validate())
	}
}

func TestHouseholdValidate(t *testing.T) {
	household := Household{
		ID:   "h1",
		Name: "The Burrow",
		Members: []Membership{
			{HouseholdID: "h1", UserID: "u1", Role: RoleOwner, Status: StatusAccepted},
		},
	}
	require.NoError(t, household.Validate())

	require.Error(t, Household{Name: "x"}.Validate())
	require.Error(t, Household{ID: "h1"}.Validate())

	// A member entry pointing at another household is inconsistent.
	household.Members[0].HouseholdID = "h2"
	require.Error(t, household.Validate())
}

func TestHouseholdMemberLookup(t *testing.T) {
	household := Household{
		ID:   "h1",
		Name: "The Burrow",
		Members: []Membership{
			{HouseholdID: "h1", UserID: "u1", Role: RoleOwner, Status: StatusAccepted},
			{HouseholdID: "h1", UserID: "u2", Role: RoleMember, Status: StatusPending},
		},
	}

	entry, ok := household.Member("u2")
	require.True(t, ok)
	require.Equal(t, StatusPending, entry.Status)

	_, ok = household.Member("ghost")
	require.False(t, ok)
}

func TestHouseholdOrphaned(t *testing.T) {
	require.True(t, Household{ID: "h1", Name: "x"}.Orphaned())

	pendingOnly := Household{ID: "h1", Name: "x", Members: []Membership{
		{HouseholdID: "h1", UserID: "u1", Role: RoleMember, Status: StatusPending},
	}}
	require.True(t, pendingOnly.Orphaned())

	withAccepted := Household{ID: "h1", Name: "x", Members: []Membership{
		{HouseholdID: "h1", UserID: "u1", Role: RoleOwner, Status: StatusAccepted},
	}}
	require.False(t, withAccepted.Orphaned())
}

func TestUserProfileValidate(t *testing.T) {
	profile := UserProfile{ID: "u1", Email: "a@example.com", DisplayName: "a"}
	require.NoError(t, profile.Validate())

	profile.Membership = &Membership{HouseholdID: "h1", UserID: "u1", Role: RoleMember, Status: StatusAccepted}
	require.NoError(t, profile.Validate())

	// The mirror must belong to the profile's own user.
	profile.Membership.UserID = "u2"
	require.Error(t, profile.Validate())

	require.Error(t, UserProfile{Email: "a@example.com", DisplayName: "a"}.Validate())
	require.Error(t, UserProfile{ID: "u1", DisplayName: "a"}.Validate())
	require.Error(t, UserProfile{ID: "u1", Email: "a@example.com"}.Validate())
}

func TestUserProfileDTOOmitsHash(t *testing.T) {
	profile := UserProfile{
		ID:           "u1",
		Email:        "a@example.com",
		DisplayName:  "a",
		PasswordHash: "$2a$10$abcdefep",
		LoggedIn:     true,
	}

	encoded, err := json.Marshal(profile.DTO())
	require.NoError(t, err)
	require.NotContains(t, string(encoded), "passwordHash")
	require.Contains(t, string(encoded), `"displayName":"a"`)
}

func TestInviteValidate(t *testing.T) {
	invite := Invite{
		ID:            "i1",
		HouseholdID:   "h1",
		HouseholdName: "The Burrow",
		InviteeUserID: "u2",
		InviterUserID: "u1",
	}
	require.NoError(t, invite.Validate())

	require.Error(t, Invite{InviteeUserID: "u2", InviterUserID: "u1"}.Validate())
	require.Error(t, Invite{HouseholdID: "h1", InviterUserID: "u1"}.Validate())
	require.Error(t, Invite{HouseholdID: "h1", InviteeUserID: "u2"}.Validate())
}

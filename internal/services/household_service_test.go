package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steviecodesit/ourhome/internal/membership"
	"github.com/steviecodesit/ourhome/internal/models"
	"github.com/steviecodesit/ourhome/internal/records"
	"github.com/steviecodesit/ourhome/internal/records/testutil"
)

func newTestHouseholdService(t *testing.T, opts ...HouseholdOption) (*HouseholdService, *UserService, records.Store) {
	t.Helper()

	store := testutil.MustOpenTestStore(t)
	users, err := NewUserService(store)
	require.NoError(t, err)

	households, err := NewHouseholdService(store, users, opts...)
	require.NoError(t, err)
	return households, users, store
}

// requireMirror asserts the user's profile mirror matches the given household,
// role and status.
func requireMirror(t *testing.T, users *UserService, userID, householdID string, role models.Role, status models.Status) {
	t.Helper()

	profile, err := users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile.Membership)
	require.Equal(t, householdID, profile.Membership.HouseholdID)
	require.Equal(t, role, profile.Membership.Role)
	require.Equal(t, status, profile.Membership.Status)
}

func requireNoMirror(t *testing.T, users *UserService, userID string) {
	t.Helper()

	profile, err := users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, profile.Membership)
}

func TestHouseholdCreate(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")

	household, err := households.Create(ctx, " The Burrow ", owner.ID)
	require.NoError(t, err)
	require.NotEmpty(t, household.ID)
	require.Equal(t, "The Burrow", household.Name)
	require.Len(t, household.Members, 1)
	require.Equal(t, owner.ID, household.Members[0].UserID)
	require.Equal(t, models.RoleOwner, household.Members[0].Role)
	require.Equal(t, models.StatusAccepted, household.Members[0].Status)

	requireMirror(t, users, owner.ID, household.ID, models.RoleOwner, models.StatusAccepted)

	_, err = households.Create(ctx, "", owner.ID)
	require.Error(t, err)

	_, err = households.Create(ctx, "Orphanage", "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestHouseholdInviteLifecycle(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	households, users, store := newTestHouseholdService(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	invitee := registerTestUser(t, users, "guest@example.com", "guest")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	invite, err := households.SendInvite(ctx, owner.ID, invitee.ID, household.ID)
	require.NoError(t, err)
	require.Equal(t, household.ID, invite.HouseholdID)
	require.Equal(t, "The Burrow", invite.HouseholdName)
	require.Equal(t, invitee.ID, invite.InviteeUserID)
	require.Equal(t, owner.ID, invite.InviterUserID)
	require.Equal(t, fixed, invite.CreatedAt)

	// The invite record is stored under its own collection.
	var stored models.Invite
	require.NoError(t, store.Get(ctx, records.CollectionInvites, invite.ID, &stored))
	require.Equal(t, invite.ID, stored.ID)

	// Invitee shows up PENDING on both sides.
	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	entry, ok := membership.Find(loaded.Members, invitee.ID)
	require.True(t, ok)
	require.Equal(t, models.StatusPending, entry.Status)
	requireMirror(t, users, invitee.ID, household.ID, models.RoleMember, models.StatusPending)

	// A second invite for the same user is rejected.
	_, err = households.SendInvite(ctx, owner.ID, invitee.ID, household.ID)
	require.ErrorIs(t, err, membership.ErrDuplicateMembership)

	require.NoError(t, households.AcceptInvite(ctx, household.ID, invitee.ID))

	loaded, err = households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	entry, ok = membership.Find(loaded.Members, invitee.ID)
	require.True(t, ok)
	require.Equal(t, models.StatusAccepted, entry.Status)
	require.Equal(t, models.RoleMember, entry.Role)
	requireMirror(t, users, invitee.ID, household.ID, models.RoleMember, models.StatusAccepted)
}

func TestHouseholdInviteRequiresOwner(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	member := registerTestUser(t, users, "member@example.com", "member")
	outsider := registerTestUser(t, users, "outsider@example.com", "outsider")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	_, err = households.SendInvite(ctx, member.ID, outsider.ID, household.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	// The rejected call must leave no trace in either record.
	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	requireNoMirror(t, users, outsider.ID)

	_, err = households.SendInvite(ctx, owner.ID, "ghost", household.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = households.SendInvite(ctx, owner.ID, outsider.ID, "no-such-household")
	require.ErrorIs(t, err, ErrHouseholdNotFound)
}

func TestHouseholdDeclineInvite(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	invitee := registerTestUser(t, users, "guest@example.com", "guest")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	_, err = households.SendInvite(ctx, owner.ID, invitee.ID, household.ID)
	require.NoError(t, err)

	require.NoError(t, households.DeclineInvite(ctx, household.ID, invitee.ID))

	// Declined entries never persist.
	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	_, ok := membership.Find(loaded.Members, invitee.ID)
	require.False(t, ok)
	requireNoMirror(t, users, invitee.ID)

	// Declining again finds nothing pending.
	err = households.DeclineInvite(ctx, household.ID, invitee.ID)
	require.ErrorIs(t, err, membership.ErrNoPendingRequest)

	// And the user can be invited afresh afterwards.
	_, err = households.SendInvite(ctx, owner.ID, invitee.ID, household.ID)
	require.NoError(t, err)
}

func TestHouseholdCancelInvitation(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	invitee := registerTestUser(t, users, "guest@example.com", "guest")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	_, err = households.SendInvite(ctx, owner.ID, invitee.ID, household.ID)
	require.NoError(t, err)

	require.NoError(t, households.CancelInvitation(ctx, household.ID, invitee.ID))

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	_, ok := membership.Find(loaded.Members, invitee.ID)
	require.False(t, ok)
	requireNoMirror(t, users, invitee.ID)

	err = households.CancelInvitation(ctx, household.ID, invitee.ID)
	require.ErrorIs(t, err, membership.ErrNotAMember)
}

func TestHouseholdRequestJoinAndAccept(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	requester := registerTestUser(t, users, "newbie@example.com", "newbie")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	// Requesting to join someone without a household fails.
	err = households.RequestJoin(ctx, requester.ID, requester.ID)
	require.ErrorIs(t, err, ErrTargetHasNoHousehold)

	require.NoError(t, households.RequestJoin(ctx, requester.ID, owner.ID))
	requireMirror(t, users, requester.ID, household.ID, models.RoleMember, models.StatusPending)

	// Requesting again is a duplicate.
	err = households.RequestJoin(ctx, requester.ID, owner.ID)
	require.ErrorIs(t, err, membership.ErrDuplicateMembership)

	// Only the owner can settle the request.
	err = households.AcceptUser(ctx, requester.ID, household.ID, requester.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)
	requireMirror(t, users, requester.ID, household.ID, models.RoleMember, models.StatusPending)

	require.NoError(t, households.AcceptUser(ctx, requester.ID, household.ID, owner.ID))
	requireMirror(t, users, requester.ID, household.ID, models.RoleMember, models.StatusAccepted)

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 2)
	require.NoError(t, membership.CheckOwnerInvariant(loaded.Members))
}

func TestHouseholdDenyUser(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	requester := registerTestUser(t, users, "newbie@example.com", "newbie")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	require.NoError(t, households.RequestJoin(ctx, requester.ID, owner.ID))

	err = households.DenyUser(ctx, requester.ID, household.ID, requester.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, households.DenyUser(ctx, requester.ID, household.ID, owner.ID))

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	_, ok := membership.Find(loaded.Members, requester.ID)
	require.False(t, ok)
	requireNoMirror(t, users, requester.ID)

	err = households.DenyUser(ctx, requester.ID, household.ID, owner.ID)
	require.ErrorIs(t, err, membership.ErrNoPendingRequest)
}

func TestHouseholdMemberLeaves(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	member := registerTestUser(t, users, "member@example.com", "member")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	_, err = households.SendInvite(ctx, owner.ID, member.ID, household.ID)
	require.NoError(t, err)
	require.NoError(t, households.AcceptInvite(ctx, household.ID, member.ID))

	require.NoError(t, households.Leave(ctx, member.ID, household.ID))

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	require.Equal(t, owner.ID, loaded.Members[0].UserID)
	requireNoMirror(t, users, member.ID)

	err = households.Leave(ctx, member.ID, household.ID)
	require.ErrorIs(t, err, membership.ErrNotAMember)
}

func TestHouseholdOwnerLeavesPromotesSuccessor(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	second := registerTestUser(t, users, "second@example.com", "second")
	third := registerTestUser(t, users, "third@example.com", "third")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	for _, user := range []*models.UserProfile{second, third} {
		_, err = households.SendInvite(ctx, owner.ID, user.ID, household.ID)
		require.NoError(t, err)
		require.NoError(t, households.AcceptInvite(ctx, household.ID, user.ID))
	}

	require.NoError(t, households.Leave(ctx, owner.ID, household.ID))

	// The longest-standing remaining member takes over.
	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 2)
	require.True(t, membership.IsOwner(loaded.Members, second.ID))
	require.False(t, membership.IsOwner(loaded.Members, third.ID))
	require.NoError(t, membership.CheckOwnerInvariant(loaded.Members))
	requireNoMirror(t, users, owner.ID)

	// Succession updates the household record first; the promoted member's
	// own mirror catches up on reconcile.
	requireMirror(t, users, second.ID, household.ID, models.RoleMember, models.StatusAccepted)
	require.NoError(t, users.ReconcileMirrors(ctx, *loaded))
	requireMirror(t, users, second.ID, household.ID, models.RoleOwner, models.StatusAccepted)
}

func TestHouseholdLastMemberLeavesRetainsOrphan(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	require.NoError(t, households.Leave(ctx, owner.ID, household.ID))

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Members)
	requireNoMirror(t, users, owner.ID)
}

func TestHouseholdLastMemberLeavesDeleteOrphanPolicy(t *testing.T) {
	households, users, _ := newTestHouseholdService(t, WithOrphanPolicy(DeleteOrphans))
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	require.NoError(t, households.Leave(ctx, owner.ID, household.ID))

	_, err = households.GetByID(ctx, household.ID)
	require.ErrorIs(t, err, ErrHouseholdNotFound)
}

// Concurrent accepts and declines against the same household must each settle
// exactly once, and the final member list must satisfy the owner invariant.
func TestHouseholdConcurrentResolution(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)

	const requesters = 8
	ids := make([]string, requesters)
	for i := range ids {
		profile := registerTestUser(t, users,
			"user"+string(rune('a'+i))+"@example.com",
			"user"+string(rune('a'+i)))
		ids[i] = profile.ID
		require.NoError(t, households.RequestJoin(ctx, profile.ID, owner.ID))
	}

	var wg sync.WaitGroup
	errs := make([]error, requesters)
	for i, userID := range ids {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			if i%2 == 0 {
				errs[i] = households.AcceptUser(ctx, userID, household.ID, owner.ID)
			} else {
				errs[i] = households.DenyUser(ctx, userID, household.ID, owner.ID)
			}
		}(i, userID)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "resolution %d", i)
	}

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.NoError(t, membership.CheckOwnerInvariant(loaded.Members))

	// Owner plus the accepted half.
	require.Len(t, loaded.Members, 1+requesters/2)
	for i, userID := range ids {
		entry, ok := membership.Find(loaded.Members, userID)
		if i%2 == 0 {
			require.True(t, ok)
			require.Equal(t, models.StatusAccepted, entry.Status)
			requireMirror(t, users, userID, household.ID, models.RoleMember, models.StatusAccepted)
		} else {
			require.False(t, ok)
			requireNoMirror(t, users, userID)
		}
	}
}

// A decline racing an identical decline: exactly one wins, the other reports
// no pending request.
func TestHouseholdConcurrentDoubleDecline(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	requester := registerTestUser(t, users, "newbie@example.com", "newbie")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)
	require.NoError(t, households.RequestJoin(ctx, requester.ID, owner.ID))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = households.DenyUser(ctx, requester.ID, household.ID, owner.ID)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, membership.ErrNoPendingRequest)
			rejected++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, rejected)

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	requireNoMirror(t, users, requester.ID)
}

// An accept racing a deny for the same pending user: exactly one of them
// settles the entry; the loser observes the request as already resolved.
func TestHouseholdConcurrentAcceptVersusDeny(t *testing.T) {
	households, users, _ := newTestHouseholdService(t)
	ctx := context.Background()

	owner := registerTestUser(t, users, "owner@example.com", "owner")
	requester := registerTestUser(t, users, "newbie@example.com", "newbie")

	household, err := households.Create(ctx, "The Burrow", owner.ID)
	require.NoError(t, err)
	require.NoError(t, households.RequestJoin(ctx, requester.ID, owner.ID))

	var wg sync.WaitGroup
	var acceptErr, denyErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		acceptErr = households.AcceptUser(ctx, requester.ID, household.ID, owner.ID)
	}()
	go func() {
		defer wg.Done()
		denyErr = households.DenyUser(ctx, requester.ID, household.ID, owner.ID)
	}()
	wg.Wait()

	loaded, err := households.GetByID(ctx, household.ID)
	require.NoError(t, err)
	require.NoError(t, membership.CheckOwnerInvariant(loaded.Members))

	switch {
	case acceptErr == nil:
		require.ErrorIs(t, denyErr, membership.ErrNoPendingRequest)
		entry, ok := membership.Find(loaded.Members, requester.ID)
		require.True(t, ok)
		require.Equal(t, models.StatusAccepted, entry.Status)
		requireMirror(t, users, requester.ID, household.ID, models.RoleMember, models.StatusAccepted)
	default:
		require.ErrorIs(t, acceptErr, membership.ErrNoPendingRequest)
		require.NoError(t, denyErr)
		_, ok := membership.Find(loaded.Members, requester.ID)
		require.False(t, ok)
		requireNoMirror(t, users, requester.ID)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steviecodesit/ourhome/internal/membership"
	"github.com/steviecodesit/ourhome/internal/models"
	"github.com/steviecodesit/ourhome/internal/records"
	"github.com/steviecodesit/ourhome/pkg/logger"
	"github.com/steviecodesit/ourhome/pkg/mail"
	"github.com/steviecodesit/ourhome/pkg/metrics"
)

// OrphanPolicy decides what happens to a household that lost its last member.
// The default retains it untouched.
type OrphanPolicy func(ctx context.Context, store records.Store, household models.Household) error

// RetainOrphans keeps ownerless households in the store.
func RetainOrphans(context.Context, records.Store, models.Household) error { return nil }

// DeleteOrphans removes ownerless households from the store.
func DeleteOrphans(ctx context.Context, store records.Store, household models.Household) error {
	return store.Delete(ctx, records.CollectionHouseholds, household.ID)
}

// HouseholdOption customises HouseholdService behaviour.
type HouseholdOption func(*HouseholdService)

// WithOrphanPolicy overrides the policy applied to households left without members.
func WithOrphanPolicy(policy OrphanPolicy) HouseholdOption {
	return func(s *HouseholdService) {
		if policy != nil {
			s.orphanPolicy = policy
		}
	}
}

// WithInviteMailer enables email notifications for outbound invites.
func WithInviteMailer(mailer mail.Mailer) HouseholdOption {
	return func(s *HouseholdService) {
		s.mailer = mailer
	}
}

// WithClock injects a custom clock primarily for testing.
func WithClock(clock func() time.Time) HouseholdOption {
	return func(s *HouseholdService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// HouseholdService orchestrates multi-record membership transitions: it loads
// the household, applies an engine transition, persists the household, then
// synchronises the affected user's membership mirror. The household write is
// authoritative; the mirror follows. Every mutating method serialises on a
// per-household lock so concurrent read-modify-write cycles cannot interleave.
type HouseholdService struct {
	store        records.Store
	users        *UserService
	locks        *keyedMutex
	orphanPolicy OrphanPolicy
	mailer       mail.Mailer
	now          func() time.Time
	log          *zap.Logger
}

// NewHouseholdService constructs a HouseholdService with the provided dependencies.
func NewHouseholdService(store records.Store, users *UserService, opts ...HouseholdOption) (*HouseholdService, error) {
	if store == nil {
		return nil, errors.New("household service: record store is required")
	}
	if users == nil {
		return nil, errors.New("household service: user service is required")
	}

	service := &HouseholdService{
		store:        store,
		users:        users,
		locks:        newKeyedMutex(),
		orphanPolicy: RetainOrphans,
		now:          time.Now,
		log:          logger.WithModule("households"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// GetByID loads a household document.
func (s *HouseholdService) GetByID(ctx context.Context, householdID string) (*models.Household, error) {
	ctx = ensureContext(ctx)

	var household models.Household
	err := s.store.Get(ctx, records.CollectionHouseholds, householdID, &household)
	if errors.Is(err, records.ErrNotFound) {
		return nil, ErrHouseholdNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("household service: load household: %w", err)
	}
	return &household, nil
}

// Create stores a new household with ownerID as its sole accepted owner and
// mirrors the owner entry onto the user profile.
func (s *HouseholdService) Create(ctx context.Context, name, ownerID string) (*models.Household, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("household service: name is required")
	}

	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return s.fail("create", err)
	}

	household := models.Household{
		ID:      uuid.NewString(),
		Name:    name,
		Members: []models.Membership{membership.NewOwner("", ownerID)},
	}
	household.Members[0].HouseholdID = household.ID
	if err := household.Validate(); err != nil {
		return s.fail("create", fmt.Errorf("household service: %w", err))
	}

	if err := s.store.Create(ctx, records.CollectionHouseholds, household.ID, household); err != nil {
		return s.fail("create", fmt.Errorf("household service: save household: %w", err))
	}

	if err := s.users.SetMembership(ctx, ownerID, household.Members[0]); err != nil {
		return s.fail("create", err)
	}

	metrics.MembershipTransitions.WithLabelValues("create", "success").Inc()
	s.log.Info("household created",
		zap.String("household_id", household.ID),
		zap.String("owner_id", ownerID))
	return &household, nil
}

// SendInvite adds inviteeID as a pending member, mirrors the entry, and stores
// an immutable invite record. Only the household owner may invite.
func (s *HouseholdService) SendInvite(ctx context.Context, inviterID, inviteeID, householdID string) (*models.Invite, error) {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failInvite("invite", err)
	}

	if !membership.IsOwner(household.Members, inviterID) {
		return s.failInvite("invite", ErrNotAuthorized)
	}

	invitee, err := s.users.GetByID(ctx, inviteeID)
	if err != nil {
		return s.failInvite("invite", err)
	}

	nextMembers, entry, err := membership.AddPending(household.Members, householdID, inviteeID, models.RoleMember)
	if err != nil {
		return s.failInvite("invite", err)
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failInvite("invite", err)
	}
	if err := s.users.SetMembership(ctx, inviteeID, entry); err != nil {
		return s.failInvite("invite", err)
	}

	invite := models.Invite{
		ID:            uuid.NewString(),
		HouseholdID:   householdID,
		HouseholdName: household.Name,
		InviteeUserID: inviteeID,
		InviterUserID: inviterID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Create(ctx, records.CollectionInvites, invite.ID, invite); err != nil {
		return s.failInvite("invite", fmt.Errorf("household service: store invite: %w", err))
	}

	s.notifyInvitee(ctx, invite, invitee)

	metrics.MembershipTransitions.WithLabelValues("invite", "success").Inc()
	s.log.Info("invite sent",
		zap.String("household_id", householdID),
		zap.String("invitee_id", inviteeID))
	return &invite, nil
}

// AcceptInvite resolves the user's pending entry to ACCEPTED and updates the mirror.
func (s *HouseholdService) AcceptInvite(ctx context.Context, householdID, userID string) error {
	return s.resolvePending(ctx, "accept_invite", householdID, userID, models.StatusAccepted)
}

// DeclineInvite removes the user's pending entry and clears the mirror. A
// second decline for the same pair reports ErrNoPendingRequest.
func (s *HouseholdService) DeclineInvite(ctx context.Context, householdID, userID string) error {
	return s.resolvePending(ctx, "decline_invite", householdID, userID, models.StatusDeclined)
}

// CancelInvitation removes the user's entry regardless of status and clears
// the mirror.
func (s *HouseholdService) CancelInvitation(ctx context.Context, householdID, userID string) error {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failErr("cancel_invite", err)
	}

	nextMembers, _, err := membership.Remove(household.Members, userID)
	if err != nil {
		return s.failErr("cancel_invite", err)
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failErr("cancel_invite", err)
	}
	if err := s.users.ClearMembership(ctx, userID, householdID); err != nil {
		return s.failErr("cancel_invite", err)
	}

	metrics.MembershipTransitions.WithLabelValues("cancel_invite", "success").Inc()
	return nil
}

// RequestJoin adds requesterID as a pending member of the household the target
// user belongs to (any membership status qualifies the target).
func (s *HouseholdService) RequestJoin(ctx context.Context, requesterID, targetUserID string) error {
	ctx = ensureContext(ctx)

	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		return s.failErr("request_join", err)
	}
	if target.Membership == nil {
		return s.failErr("request_join", ErrTargetHasNoHousehold)
	}

	householdID := target.Membership.HouseholdID
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failErr("request_join", err)
	}

	nextMembers, entry, err := membership.AddPending(household.Members, householdID, requesterID, models.RoleMember)
	if err != nil {
		return s.failErr("request_join", err)
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failErr("request_join", err)
	}
	if err := s.users.SetMembership(ctx, requesterID, entry); err != nil {
		return s.failErr("request_join", err)
	}

	metrics.MembershipTransitions.WithLabelValues("request_join", "success").Inc()
	s.log.Info("join requested",
		zap.String("household_id", householdID),
		zap.String("requester_id", requesterID))
	return nil
}

// AcceptUser resolves userID's pending join request to ACCEPTED. The acting
// user must hold the accepted owner entry at the time of the call.
func (s *HouseholdService) AcceptUser(ctx context.Context, userID, householdID, ownerID string) error {
	return s.resolveAsOwner(ctx, "accept_user", householdID, userID, ownerID, models.StatusAccepted)
}

// DenyUser removes userID's pending join request. The acting user must hold
// the accepted owner entry at the time of the call.
func (s *HouseholdService) DenyUser(ctx context.Context, userID, householdID, ownerID string) error {
	return s.resolveAsOwner(ctx, "deny_user", householdID, userID, ownerID, models.StatusDeclined)
}

// Leave removes the user from the household. When the owner leaves, the
// longest-standing remaining member is promoted; when nobody remains, the
// configured orphan policy runs.
func (s *HouseholdService) Leave(ctx context.Context, userID, householdID string) error {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failErr("leave", err)
	}

	nextMembers, removed, err := membership.Remove(household.Members, userID)
	if err != nil {
		return s.failErr("leave", err)
	}

	var promoted *models.Membership
	if removed.Role == models.RoleOwner && len(nextMembers) > 0 {
		nextMembers, promoted, err = membership.PromoteSuccessor(nextMembers)
		if err != nil {
			return s.failErr("leave", err)
		}
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failErr("leave", err)
	}
	if err := s.users.ClearMembership(ctx, userID, householdID); err != nil {
		return s.failErr("leave", err)
	}

	if promoted != nil {
		// The promoted member's own mirror keeps showing MEMBER until a
		// reconcile pass runs; see UserService.ReconcileMirrors.
		s.log.Info("ownership transferred",
			zap.String("household_id", householdID),
			zap.String("new_owner_id", promoted.UserID))
	}

	if len(nextMembers) == 0 {
		metrics.OrphanedHouseholds.Inc()
		household.Members = nextMembers
		if err := s.orphanPolicy(ctx, s.store, *household); err != nil {
			return s.failErr("leave", fmt.Errorf("household service: orphan policy: %w", err))
		}
	}

	metrics.MembershipTransitions.WithLabelValues("leave", "success").Inc()
	s.log.Info("member left",
		zap.String("household_id", householdID),
		zap.String("user_id", userID))
	return nil
}

// resolvePending settles the acting user's own pending entry (invite accept/decline).
func (s *HouseholdService) resolvePending(ctx context.Context, operation, householdID, userID string, outcome models.Status) error {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failErr(operation, err)
	}

	nextMembers, resolved, err := membership.ResolvePending(household.Members, userID, outcome)
	if err != nil {
		return s.failErr(operation, err)
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failErr(operation, err)
	}

	if outcome == models.StatusAccepted {
		err = s.users.SetMembership(ctx, userID, resolved)
	} else {
		err = s.users.ClearMembership(ctx, userID, householdID)
	}
	if err != nil {
		return s.failErr(operation, err)
	}

	metrics.MembershipTransitions.WithLabelValues(operation, "success").Inc()
	return nil
}

// resolveAsOwner settles another user's pending entry on behalf of the owner.
// The owner role is re-derived from the freshly loaded household, never from
// caller-supplied claims.
func (s *HouseholdService) resolveAsOwner(ctx context.Context, operation, householdID, userID, ownerID string, outcome models.Status) error {
	ctx = ensureContext(ctx)
	unlock := s.locks.Lock(householdID)
	defer unlock()

	household, err := s.GetByID(ctx, householdID)
	if err != nil {
		return s.failErr(operation, err)
	}

	if !membership.IsOwner(household.Members, ownerID) {
		return s.failErr(operation, ErrNotAuthorized)
	}

	nextMembers, resolved, err := membership.ResolvePending(household.Members, userID, outcome)
	if err != nil {
		return s.failErr(operation, err)
	}

	if err := s.persistMembers(ctx, household, nextMembers); err != nil {
		return s.failErr(operation, err)
	}

	if outcome == models.StatusAccepted {
		err = s.users.SetMembership(ctx, userID, resolved)
	} else {
		err = s.users.ClearMembership(ctx, userID, householdID)
	}
	if err != nil {
		return s.failErr(operation, err)
	}

	metrics.MembershipTransitions.WithLabelValues(operation, "success").Inc()
	return nil
}

// persistMembers validates and writes the household with the new member list.
func (s *HouseholdService) persistMembers(ctx context.Context, household *models.Household, members []models.Membership) error {
	next := *household
	next.Members = members
	if err := next.Validate(); err != nil {
		return fmt.Errorf("household service: %w", err)
	}

	if err := s.store.Put(ctx, records.CollectionHouseholds, next.ID, next); err != nil {
		return fmt.Errorf("household service: save household: %w", err)
	}

	household.Members = members
	return nil
}

func (s *HouseholdService) notifyInvitee(ctx context.Context, invite models.Invite, invitee *models.UserProfile) {
	if s.mailer == nil || invitee == nil {
		return
	}

	message := mail.Message{
		To:      invitee.Email,
		Subject: fmt.Sprintf("You're invited to join %s", invite.HouseholdName),
		Body: fmt.Sprintf("Hello %s,\n\nYou have been invited to join the household %q. Open the app to accept or decline.\n",
			invitee.DisplayName, invite.HouseholdName),
	}
	if err := s.mailer.Send(ctx, message); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("invite email failed",
			zap.String("invite_id", invite.ID),
			zap.Error(err))
	}
}

func (s *HouseholdService) fail(operation string, err error) (*models.Household, error) {
	metrics.MembershipTransitions.WithLabelValues(operation, "failure").Inc()
	return nil, err
}

func (s *HouseholdService) failInvite(operation string, err error) (*models.Invite, error) {
	metrics.MembershipTransitions.WithLabelValues(operation, "failure").Inc()
	return nil, err
}

func (s *HouseholdService) failErr(operation string, err error) error {
	metrics.MembershipTransitions.WithLabelValues(operation, "failure").Inc()
	return err
}

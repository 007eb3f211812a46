package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steviecodesit/ourhome/internal/models"
	"github.com/steviecodesit/ourhome/internal/records"
	"github.com/steviecodesit/ourhome/pkg/crypto"
	"github.com/steviecodesit/ourhome/pkg/logger"
	"github.com/steviecodesit/ourhome/pkg/validator"
)

// RegisterUserInput captures the fields accepted when registering a user.
type RegisterUserInput struct {
	Email       string
	DisplayName string
	Password    string
}

// UserService manages user profile documents, including the household
// membership mirror each profile carries.
type UserService struct {
	store records.Store
	log   *zap.Logger
}

// NewUserService constructs a UserService with the provided record store.
func NewUserService(store records.Store) (*UserService, error) {
	if store == nil {
		return nil, errors.New("user service: record store is required")
	}
	return &UserService{
		store: store,
		log:   logger.WithModule("users"),
	}, nil
}

// Register validates uniqueness and the password policy, then stores a new
// profile with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.UserProfile, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	displayName := strings.TrimSpace(input.DisplayName)

	if !validator.IsStrongPassword(input.Password) {
		return nil, ErrWeakPassword
	}

	unique, err := s.IsEmailUnique(ctx, email)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, ErrEmailTaken
	}

	unique, err = s.IsDisplayNameUnique(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, ErrDisplayNameTaken
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	profile := models.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		LoggedIn:     true,
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}

	if err := s.store.Create(ctx, records.CollectionUsers, profile.ID, profile); err != nil {
		return nil, fmt.Errorf("user service: save profile: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", profile.ID))
	return &profile, nil
}

// GetByID loads a profile document.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	ctx = ensureContext(ctx)

	var profile models.UserProfile
	err := s.store.Get(ctx, records.CollectionUsers, userID, &profile)
	if errors.Is(err, records.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load profile: %w", err)
	}
	return &profile, nil
}

// FindByEmail returns the profile registered under email, if any.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var matches []models.UserProfile
	if err := s.store.FindEqual(ctx, records.CollectionUsers, "email", email, &matches); err != nil {
		return nil, fmt.Errorf("user service: find by email: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrUserNotFound
	}
	return &matches[0], nil
}

// IsEmailUnique reports whether no profile uses the email address.
func (s *UserService) IsEmailUnique(ctx context.Context, email string) (bool, error) {
	var matches []models.UserProfile
	if err := s.store.FindEqual(ensureContext(ctx), records.CollectionUsers, "email", email, &matches); err != nil {
		return false, fmt.Errorf("user service: email lookup: %w", err)
	}
	return len(matches) == 0, nil
}

// IsDisplayNameUnique reports whether no profile uses the display name.
func (s *UserService) IsDisplayNameUnique(ctx context.Context, displayName string) (bool, error) {
	var matches []models.UserProfile
	if err := s.store.FindEqual(ensureContext(ctx), records.CollectionUsers, "displayName", displayName, &matches); err != nil {
		return false, fmt.Errorf("user service: display name lookup: %w", err)
	}
	return len(matches) == 0, nil
}

// Search finds profiles whose email or display name exactly matches the query,
// deduplicated by id.
func (s *UserService) Search(ctx context.Context, query string) ([]models.UserProfile, error) {
	ctx = ensureContext(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserProfile{}, nil
	}

	var byEmail []models.UserProfile
	if err := s.store.FindEqual(ctx, records.CollectionUsers, "email", strings.ToLower(query), &byEmail); err != nil {
		return nil, fmt.Errorf("user service: search by email: %w", err)
	}

	var byName []models.UserProfile
	if err := s.store.FindEqual(ctx, records.CollectionUsers, "displayName", query, &byName); err != nil {
		return nil, fmt.Errorf("user service: search by display name: %w", err)
	}

	seen := make(map[string]struct{}, len(byEmail)+len(byName))
	results := make([]models.UserProfile, 0, len(byEmail)+len(byName))
	for _, profile := range append(byEmail, byName...) {
		if _, dup := seen[profile.ID]; dup {
			continue
		}
		seen[profile.ID] = struct{}{}
		results = append(results, profile)
	}
	return results, nil
}

// VerifyPassword checks the candidate password against the stored hash.
func (s *UserService) VerifyPassword(profile *models.UserProfile, password string) bool {
	if profile == nil {
		return false
	}
	return crypto.VerifyPassword(profile.PasswordHash, password)
}

// SetLoggedIn updates the profile's logged-in flag in place.
func (s *UserService) SetLoggedIn(ctx context.Context, userID string, loggedIn bool) error {
	ctx = ensureContext(ctx)

	err := s.store.Patch(ctx, records.CollectionUsers, userID, map[string]any{"loggedIn": loggedIn})
	if errors.Is(err, records.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("user service: update logged-in flag: %w", err)
	}
	return nil
}

// IsLoggedIn reports the profile's logged-in flag; missing profiles report false.
func (s *UserService) IsLoggedIn(ctx context.Context, userID string) bool {
	profile, err := s.GetByID(ensureContext(ctx), userID)
	if err != nil {
		return false
	}
	return profile.LoggedIn
}

// SetMembership writes the household-side entry into the user's mirror. This
// runs after every engine transition that leaves the user with an entry.
func (s *UserService) SetMembership(ctx context.Context, userID string, m models.Membership) error {
	ctx = ensureContext(ctx)

	if err := m.Validate(); err != nil {
		return fmt.Errorf("user service: %w", err)
	}
	if m.UserID != userID {
		return fmt.Errorf("user service: mirror for user %s cannot carry entry of user %s", userID, m.UserID)
	}

	err := s.store.Patch(ctx, records.CollectionUsers, userID, map[string]any{"householdMembership": m})
	if errors.Is(err, records.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("user service: set membership mirror: %w", err)
	}
	return nil
}

// ClearMembership empties the user's mirror when it references householdID.
// Clearing an already-empty or unrelated mirror is a no-op.
func (s *UserService) ClearMembership(ctx context.Context, userID, householdID string) error {
	ctx = ensureContext(ctx)

	profile, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if profile.Membership == nil || profile.Membership.HouseholdID != householdID {
		return nil
	}

	err = s.store.Patch(ctx, records.CollectionUsers, userID, map[string]any{"householdMembership": nil})
	if err != nil {
		return fmt.Errorf("user service: clear membership mirror: %w", err)
	}
	return nil
}

// ReconcileMirrors re-derives every member's mirror from the household's
// member list. Run after a crash between the household write and the mirror
// write, it restores the cross-record consistency the dual-write normally
// maintains; it also refreshes mirrors left stale by ownership succession.
func (s *UserService) ReconcileMirrors(ctx context.Context, household models.Household) error {
	ctx = ensureContext(ctx)

	for _, m := range household.Members {
		if err := s.SetMembership(ctx, m.UserID, m); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				s.log.Warn("mirror reconcile skipped missing profile",
					zap.String("user_id", m.UserID),
					zap.String("household_id", household.ID))
				continue
			}
			return err
		}
	}
	return nil
}

package services

import (
	"net/http"

	apperrors "github.com/steviecodesit/ourhome/pkg/errors"
)

var (
	// ErrHouseholdNotFound indicates the requested household does not exist.
	ErrHouseholdNotFound = apperrors.New("HOUSEHOLD_NOT_FOUND", "Household not found", http.StatusNotFound)
	// ErrUserNotFound indicates the requested user profile does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrNotAuthorized signals the acting user lacks the owner role required
	// for the operation.
	ErrNotAuthorized = apperrors.New("NOT_AUTHORIZED", "Only the household owner can perform this operation", http.StatusForbidden)
	// ErrTargetHasNoHousehold signals a join request aimed at a user without
	// any household membership.
	ErrTargetHasNoHousehold = apperrors.New("TARGET_HAS_NO_HOUSEHOLD", "Target user is not part of any household", http.StatusBadRequest)
	// ErrEmailTaken signals a registration with an already used email address.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email is already registered", http.StatusBadRequest)
	// ErrDisplayNameTaken signals a registration with an already used display name.
	ErrDisplayNameTaken = apperrors.New("DISPLAY_NAME_TAKEN", "Display name is already taken", http.StatusBadRequest)
	// ErrWeakPassword signals a password that fails the account password policy.
	ErrWeakPassword = apperrors.New("WEAK_PASSWORD", "Password must be at least 8 characters and contain a digit, a lowercase letter, an uppercase letter, and a special character", http.StatusBadRequest)
)

package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nimbusapi/authcore/audit"
	"github.com/nimbusapi/authcore/store"
)

const minPasswordLength = 8

// Register creates an active account. The duplicate-email check runs first
// so a conflicting registration fails the same way regardless of the other
// fields.
func (s *Service) Register(ctx context.Context, email, passwd, fullName string) (user *User, err error) {
	start := s.now()
	defer func() { s.observe(opRegister, start, err) }()

	existing, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, store.ErrNotFound) {
		err = lookupErr
		return nil, err
	}
	if existing != nil {
		err = newValidationError("Email already registered")
		s.emit(ctx, audit.TypeRegister, "", false, "duplicate email")
		return nil, err
	}

	if email == "" || !strings.Contains(email, "@") {
		err = newValidationError("Invalid email format")
		return nil, err
	}
	if len(passwd) < minPasswordLength {
		err = newValidationError("Password must be at least %d characters", minPasswordLength)
		return nil, err
	}
	trimmedName := strings.TrimSpace(fullName)
	if trimmedName == "" {
		err = newValidationError("Full name cannot be empty")
		return nil, err
	}

	digest, hashErr := s.hasher.Hash(passwd)
	if hashErr != nil {
		err = hashErr
		return nil, err
	}

	now := s.now()
	created, createErr := s.users.Create(ctx, &store.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: digest,
		FullName:     trimmedName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if createErr != nil {
		if errors.Is(createErr, store.ErrDuplicateEmail) {
			err = newValidationError("Email already registered")
			return nil, err
		}
		err = createErr
		return nil, err
	}

	s.emit(ctx, audit.TypeRegister, created.ID, true, "")
	return created, nil
}

// ChangePassword verifies the current password before accepting the new one
// and revokes every outstanding refresh token for the account.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (user *User, err error) {
	start := s.now()
	defer func() { s.observe(opChangePassword, start, err) }()

	u, lookupErr := s.users.GetByID(ctx, userID)
	if lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			err = newValidationError("User not found")
			return nil, err
		}
		err = lookupErr
		return nil, err
	}

	if !s.hasher.Verify(currentPassword, u.PasswordHash) {
		err = newAuthenticationError("Current password is incorrect")
		s.emit(ctx, audit.TypePasswordChange, u.ID, false, "current password mismatch")
		return nil, err
	}
	if len(newPassword) < minPasswordLength {
		err = newValidationError("Password must be at least %d characters", minPasswordLength)
		return nil, err
	}
	if newPassword == currentPassword {
		err = newValidationError("New password must be different from current password")
		return nil, err
	}

	digest, hashErr := s.hasher.Hash(newPassword)
	if hashErr != nil {
		err = hashErr
		return nil, err
	}
	u.PasswordHash = digest
	u.UpdatedAt = s.now()

	updated, updateErr := s.users.Update(ctx, u)
	if updateErr != nil {
		err = updateErr
		return nil, err
	}

	// Standing sessions do not survive a password change.
	if revokeErr := s.tokens.RevokeAllForUser(ctx, u.ID); revokeErr != nil {
		err = revokeErr
		return nil, err
	}

	s.emit(ctx, audit.TypePasswordChange, u.ID, true, "")
	return updated, nil
}

// UpdateProfile changes the display name. An unchanged name succeeds without
// touching the store.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName string) (user *User, err error) {
	start := s.now()
	defer func() { s.observe(opUpdateProfile, start, err) }()

	u, lookupErr := s.users.GetByID(ctx, userID)
	if lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			err = newValidationError("User not found")
			return nil, err
		}
		err = lookupErr
		return nil, err
	}

	trimmedName := strings.TrimSpace(fullName)
	if trimmedName == "" {
		err = newValidationError("Full name cannot be empty")
		return nil, err
	}
	if trimmedName == u.FullName {
		return u, nil
	}

	u.FullName = trimmedName
	u.UpdatedAt = s.now()
	updated, updateErr := s.users.Update(ctx, u)
	if updateErr != nil {
		err = updateErr
		return nil, err
	}

	s.emit(ctx, audit.TypeProfileUpdate, u.ID, true, "")
	return updated, nil
}

// DeleteAccount revokes all refresh tokens before removing the account, so
// a failed delete never leaves live tokens behind a missing user.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (err error) {
	start := s.now()
	defer func() { s.observe(opDeleteAccount, start, err) }()

	if _, lookupErr := s.users.GetByID(ctx, userID); lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			err = newValidationError("User not found")
			return err
		}
		err = lookupErr
		return err
	}

	if revokeErr := s.tokens.RevokeAllForUser(ctx, userID); revokeErr != nil {
		err = revokeErr
		return err
	}
	if deleteErr := s.users.Delete(ctx, userID); deleteErr != nil {
		err = deleteErr
		return err
	}

	s.emit(ctx, audit.TypeAccountDelete, userID, true, "")
	return nil
}

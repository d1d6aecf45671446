package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nimbusapi/authcore/audit"
	"github.com/nimbusapi/authcore/store"
	"github.com/nimbusapi/authcore/token"
)

// Login verifies credentials and returns a fresh token pair. The lockout
// check runs before password verification so a locked account cannot confirm
// its password, and the failure message never reveals whether the email
// exists.
func (s *Service) Login(ctx context.Context, email, passwd string) (result *AuthTokens, err error) {
	start := s.now()
	defer func() { s.observe(opLogin, start, err) }()

	user, lookupErr := s.users.GetByEmail(ctx, email)
	if lookupErr != nil && !errors.Is(lookupErr, store.ErrNotFound) {
		err = lookupErr
		return nil, err
	}

	if s.lockout != nil && user != nil {
		locked, remaining, lockErr := s.lockout.IsLocked(ctx, user.ID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if locked {
			err = newAuthenticationError(
				"Account locked due to too many failed login attempts. Please try again in %d minute(s).",
				remaining/60)
			s.emit(ctx, audit.TypeLoginLocked, user.ID, false, "account locked")
			return nil, err
		}
	}

	if user == nil {
		err = ErrInvalidCredentials
		s.emit(ctx, audit.TypeLogin, "", false, "unknown email")
		return nil, err
	}

	if !s.hasher.Verify(passwd, user.PasswordHash) {
		if s.lockout != nil {
			_, nowLocked, recordErr := s.lockout.RecordFailure(ctx, user.ID)
			if recordErr != nil {
				err = recordErr
				return nil, err
			}
			if nowLocked {
				err = newAuthenticationError(
					"Account locked due to too many failed login attempts. Please try again in %d minutes.",
					int(s.config.Lockout.Duration/time.Minute))
				s.emit(ctx, audit.TypeLoginLocked, user.ID, false, "lockout threshold reached")
				return nil, err
			}
		}
		err = ErrInvalidCredentials
		s.emit(ctx, audit.TypeLogin, user.ID, false, "password mismatch")
		return nil, err
	}

	if !user.CanAuthenticate() {
		err = ErrAccountInactive
		s.emit(ctx, audit.TypeLogin, user.ID, false, "account inactive")
		return nil, err
	}

	if s.lockout != nil {
		if resetErr := s.lockout.Reset(ctx, user.ID); resetErr != nil {
			// The login already succeeded; a stale counter only shortens the
			// runway for future failures.
			log.Printf("authcore: failed-login counter reset for %s: %v", user.ID, resetErr)
		}
	}

	pair, issueErr := s.issueTokenPair(ctx, user.ID)
	if issueErr != nil {
		err = issueErr
		return nil, err
	}
	s.emit(ctx, audit.TypeLogin, user.ID, true, "")
	return pair, nil
}

// RefreshAccessToken rotates a refresh token: the presented token is revoked
// and a new pair is issued. A token that was already rotated, revoked, or
// expired fails verification, so each refresh token works exactly once.
func (s *Service) RefreshAccessToken(ctx context.Context, rawRefreshToken string) (result *AuthTokens, err error) {
	start := s.now()
	defer func() { s.observe(opRefresh, start, err) }()

	claims, verifyErr := s.codec.Verify(rawRefreshToken, token.Refresh)
	if verifyErr != nil {
		err = ErrInvalidRefreshToken
		s.emit(ctx, audit.TypeRefresh, "", false, "verification failed")
		return nil, err
	}

	digest := store.Digest(rawRefreshToken)
	if _, findErr := s.tokens.FindUsable(ctx, digest); findErr != nil {
		if errors.Is(findErr, store.ErrNotFound) {
			err = ErrInvalidRefreshToken
			s.emit(ctx, audit.TypeRefreshReuse, claims.Subject, false, "token not usable")
			return nil, err
		}
		err = findErr
		return nil, err
	}

	if revokeErr := s.tokens.RevokeByDigest(ctx, digest); revokeErr != nil {
		err = revokeErr
		return nil, err
	}

	pair, issueErr := s.issueTokenPair(ctx, claims.Subject)
	if issueErr != nil {
		err = issueErr
		return nil, err
	}
	s.emit(ctx, audit.TypeRefresh, claims.Subject, true, "")
	return pair, nil
}

// VerifyAccessToken validates an access token and returns its subject.
// Transports call this on every authenticated request.
func (s *Service) VerifyAccessToken(tokenStr string) (string, error) {
	claims, err := s.codec.Verify(tokenStr, token.Access)
	if err != nil {
		return "", ErrInvalidAccessToken
	}
	return claims.Subject, nil
}

// issueTokenPair mints both tokens and persists the refresh digest.
func (s *Service) issueTokenPair(ctx context.Context, userID string) (*AuthTokens, error) {
	access, err := s.codec.Issue(userID, token.Access, s.config.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(userID, token.Refresh, s.config.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}

	record := &store.RefreshTokenRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		TokenDigest: store.Digest(refresh),
		ExpiresAt:   s.now().Add(s.config.JWT.RefreshTTL),
	}
	if _, err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenType,
		ExpiresIn:    int64(s.config.JWT.AccessTTL / time.Second),
	}, nil
}

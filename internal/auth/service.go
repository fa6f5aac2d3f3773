package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/time/rate"
)

// identityAPI is the password sign-in surface of the identity provider.
type identityAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
}

// adminAPI is the slice of the Firebase Admin client the service uses;
// *fbauth.Client satisfies it.
type adminAPI interface {
	UpdateUser(ctx context.Context, uid string, user *fbauth.UserToUpdate) (*fbauth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type Service struct {
	identity identityAPI
	admin    adminAPI
	limiter  *attemptLimiter
	logger   *slog.Logger
}

func NewService(identity identityAPI, admin adminAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		identity: identity,
		admin:    admin,
		// 5 immediate attempts per key, then one every 30 seconds.
		limiter: newAttemptLimiter(rate.Every(30*time.Second), 5),
		logger:  logger,
	}
}

// Login signs in with email/password. Failed provider calls surface as
// *ProviderError carrying the user-facing message.
func (s *Service) Login(ctx context.Context, email, password, remoteIP string) (*Session, error) {
	if !s.limiter.Allow(email + "|" + remoteIP) {
		return nil, &ProviderError{Code: CodeTooManyAttempts, Message: userMessages[CodeTooManyAttempts]}
	}

	sess, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Info("login rejected", "email", email, "error", err)
		return nil, err
	}
	return sess, nil
}

// Register creates an email/password account and sets the display name. The
// account exists even if the display-name update fails; the session is
// returned either way and the failure logged.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	sess, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Info("registration rejected", "email", email, "error", err)
		return nil, err
	}

	if displayName != "" {
		update := (&fbauth.UserToUpdate{}).DisplayName(displayName)
		if _, err := s.admin.UpdateUser(ctx, sess.UID, update); err != nil {
			s.logger.Warn("display name update failed", "uid", sess.UID, "error", err)
		} else {
			sess.DisplayName = displayName
		}
	}

	return sess, nil
}

// Logout revokes the user's refresh tokens; existing ID tokens expire on
// their own within the hour.
func (s *Service) Logout(ctx context.Context, uid string) error {
	if err := s.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

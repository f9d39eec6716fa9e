package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ecostore/apiserver/internal/auth"
	"github.com/ecostore/apiserver/internal/events"
	"github.com/ecostore/apiserver/internal/metrics"
	"github.com/ecostore/apiserver/internal/store"
	"github.com/ecostore/apiserver/types"
	"github.com/sirupsen/logrus"
)

// EventPublisher sends account events. *events.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) (string, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  types.User
}

// AuthDeps groups the collaborators of AuthService. Events, Metrics and
// Denylist are optional.
type AuthDeps struct {
	Users    UserRepository
	Hasher   *auth.PasswordHasher
	Tokens   *auth.TokenService
	Events   EventPublisher
	Metrics  *metrics.Metrics
	Denylist auth.Denylist
	Logger   logrus.FieldLogger

	// AllowAdminSignup lets a registration request the admin role.
	AllowAdminSignup bool
}

// AuthService implements registration, login and identity lookup.
type AuthService struct {
	users            UserRepository
	hasher           *auth.PasswordHasher
	tokens           *auth.TokenService
	events           EventPublisher
	metrics          *metrics.Metrics
	denylist         auth.Denylist
	logger           logrus.FieldLogger
	allowAdminSignup bool

	// dummyHash is verified against when a login names an unknown email, so
	// the response takes as long as a real password check.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps AuthDeps) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		users:            deps.Users,
		hasher:           deps.Hasher,
		tokens:           deps.Tokens,
		events:           deps.Events,
		metrics:          deps.Metrics,
		denylist:         deps.Denylist,
		logger:           logger,
		allowAdminSignup: deps.AllowAdminSignup,
	}
}

// Register creates a user and returns a token for it. The admin role is
// granted only when "admin" is requested exactly and the signup policy allows
// it. Any other role value registers a plain user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		s.metrics.Registration(metrics.OutcomeInvalid)
		return AuthResult{}, invalid("Name, email, and password are required")
	}

	role := types.RoleUser
	if strings.TrimSpace(in.Role) == string(types.RoleAdmin) {
		if !s.allowAdminSignup {
			s.metrics.Registration(metrics.OutcomeForbidden)
			return AuthResult{}, ErrRegistrationForbidden
		}
		role = types.RoleAdmin
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		s.metrics.Registration(metrics.OutcomeDuplicate)
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		s.metrics.Registration(metrics.OutcomeError)
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			s.metrics.Registration(metrics.OutcomeInvalid)
		} else {
			s.metrics.Registration(metrics.OutcomeError)
		}
		return AuthResult{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.metrics.Registration(metrics.OutcomeDuplicate)
			return AuthResult{}, ErrEmailTaken
		}
		s.metrics.Registration(metrics.OutcomeError)
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.IssueDefault(payloadFor(user))
	if err != nil {
		s.metrics.Registration(metrics.OutcomeError)
		return AuthResult{}, err
	}

	s.metrics.Registration(metrics.OutcomeSuccess)
	s.publish(ctx, events.TypeUserRegistered, user)
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return AuthResult{Token: token, User: user}, nil
}

// Login checks credentials and returns a fresh token. Unknown email and wrong
// password fail with the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		s.metrics.Login(metrics.OutcomeInvalid)
		return AuthResult{}, invalid("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(ctx, in.Password, s.unknownUserHash())
			s.metrics.Login(metrics.OutcomeInvalid)
			return AuthResult{}, ErrInvalidCredentials
		}
		s.metrics.Login(metrics.OutcomeError)
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(ctx, in.Password, user.PasswordHash) {
		if err := ctx.Err(); err != nil {
			s.metrics.Login(metrics.OutcomeError)
			return AuthResult{}, err
		}
		s.metrics.Login(metrics.OutcomeInvalid)
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueDefault(payloadFor(user))
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return AuthResult{}, err
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	s.publish(ctx, events.TypeUserLoggedIn, user)
	return AuthResult{Token: token, User: user}, nil
}

// Me reloads the user behind a verified identity.
func (s *AuthService) Me(ctx context.Context, identity auth.Identity) (types.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Logout revokes the identity's token until it expires. Without a deny-list
// it is a no-op.
func (s *AuthService) Logout(ctx context.Context, identity auth.Identity) error {
	if s.denylist == nil || identity.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user types.User) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Publish(ctx, events.NewUserEvent(eventType, user)); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("failed to publish event")
	}
}

func (s *AuthService) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.Background(), "unknown-user-placeholder")
		if err != nil {
			s.logger.WithError(err).Warn("failed to prepare placeholder hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func payloadFor(user types.User) auth.TokenPayload {
	return auth.TokenPayload{UserID: user.ID, Email: user.Email, Role: user.Role}
}

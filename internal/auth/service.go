package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
	"github.com/snwareresearch/project-tracker/internal/notification"
)

// CredentialStore persists user records. Implementations return
// ErrCredentialNotFound and ErrDuplicateEmail for the matching conditions.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Insert(ctx context.Context, user *userDatamodel.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type ServiceAPI interface {
	Signup(ctx context.Context, actor *Claims, dto SignupDTO) (*PublicUser, error)
	Bootstrap(ctx context.Context, dto SignupDTO) (*PublicUser, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*Session, error)
	ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error
	UpdatePassword(ctx context.Context, dto UpdatePasswordDTO) error
	ValidateAccessToken(tokenString string) (*Claims, error)
	TokenTTL() time.Duration
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *PublicUser
}

type ServiceConfig struct {
	TokenTTL     time.Duration
	QueryTimeout time.Duration
}

// Service is the password lifecycle manager: signup, login, forced reset
// and self-service password change.
type Service struct {
	store     CredentialStore
	hasher    PasswordHasher
	tokens    TokenGenerator
	mailer    notification.Mailer
	validator *validation.Validator
	cfg       ServiceConfig
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth service
func NewService(store CredentialStore, hasher PasswordHasher, tokens TokenGenerator, mailer notification.Mailer, v *validation.Validator, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		mailer:    mailer,
		validator: v,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Service) TokenTTL() time.Duration {
	return s.cfg.TokenTTL
}

// SelfSignupRole is the only role an account may be registered with
// without an administrator session.
const SelfSignupRole = RoleExecutive

// Signup creates an active account. actor is nil for anonymous registration.
// SelfSignupRole is open to anyone; other roles need an actor allowed to
// assign them.
func (s *Service) Signup(ctx context.Context, actor *Claims, dto SignupDTO) (*PublicUser, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	if dto.Role != SelfSignupRole && (actor == nil || !actor.Role.CanAssign(dto.Role)) {
		if actor == nil {
			s.logger.Warn("signup denied: privileged role requested without a session", "requested_role", dto.Role)
		} else {
			s.logger.Warn("signup denied: role assignment above actor rank",
				"actor_id", actor.UserID, "actor_role", actor.Role, "requested_role", dto.Role)
		}
		return nil, internal.ErrInsufficientRole
	}

	return s.register(ctx, dto)
}

// Bootstrap creates an account with any role. It is reserved for operator
// tooling such as seeding the first Super Admin and is not reachable over HTTP.
func (s *Service) Bootstrap(ctx context.Context, dto SignupDTO) (*PublicUser, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}
	return s.register(ctx, dto)
}

func (s *Service) register(ctx context.Context, dto SignupDTO) (*PublicUser, error) {
	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	existing, err := s.store.FindByEmail(qctx, dto.Email)
	switch {
	case err == nil && existing != nil:
		return nil, internal.ErrEmailExists
	case err != nil && !errors.Is(err, ErrCredentialNotFound):
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	record := &userDatamodel.User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         string(dto.Role),
		Department:   dto.Department,
		IsActive:     true,
	}

	if err := s.store.Insert(qctx, record); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, internal.ErrEmailExists
		}
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user signed up", "user_id", record.ID, "role", record.Role)
	return ToPublicUser(record), nil
}

// Authenticate verifies credentials and issues a session token. Unknown email
// and wrong password yield the same error; a disabled account is reported
// only once the password has been verified.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Session, error) {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return nil, err
	}

	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	user, err := s.store.FindByEmail(qctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			// equalise timing with the known-user path
			s.hasher.Verify(dto.Password, s.dummy())
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	if !s.hasher.Verify(dto.Password, user.PasswordHash) {
		return nil, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	token, expiresAt, err := s.tokens.Issue(IdentityOf(user), s.cfg.TokenTTL)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToPublicUser(user),
	}, nil
}

// ForgotPassword replaces the stored hash with a fresh temporary secret and
// mails it. A delivery failure is reported as ErrNotificationFailed; the new
// hash stays in place.
func (s *Service) ForgotPassword(ctx context.Context, dto ForgotPasswordDTO) error {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return err
	}

	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	user, err := s.store.FindByEmail(qctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to look up user", err)
	}

	temp, err := GenerateTemporaryPassword(TemporaryPasswordLength)
	if err != nil {
		return internal.NewInternalError("failed to generate temporary password", err)
	}

	hash, err := s.hasher.Hash(temp)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.store.UpdatePassword(qctx, user.ID, hash); err != nil {
		return internal.NewInternalError("failed to store temporary password", err)
	}
	cancel()

	subject, body := notification.PasswordResetMessage(user.Name, temp)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error("temporary password delivery failed", "user_id", user.ID, "error", err)
		return internal.ErrNotificationFailed.WithCause(err)
	}

	s.logger.Info("temporary password issued", "user_id", user.ID)
	return nil
}

// UpdatePassword changes a password after checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, dto UpdatePasswordDTO) error {
	dto.Normalize()
	if err := s.validator.Struct(dto); err != nil {
		return err
	}

	qctx, cancel := internal.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	user, err := s.store.FindByEmail(qctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to look up user", err)
	}

	if !s.hasher.Verify(dto.CurrentPassword, user.PasswordHash) {
		return internal.ErrCurrentPasswordIncorrect
	}

	hash, err := s.hasher.Hash(dto.NewPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.store.UpdatePassword(qctx, user.ID, hash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password updated", "user_id", user.ID)
	return nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equaliser-0!")
	})
	return s.dummyHash
}

const TemporaryPasswordLength = 10

const (
	tempLetters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	tempDigits  = "23456789"
)

// GenerateTemporaryPassword returns a random secret of length n (min 6) that
// satisfies the password policy.
func GenerateTemporaryPassword(n int) (string, error) {
	if n < validation.PasswordMinLength {
		n = validation.PasswordMinLength
	}
	all := tempLetters + tempDigits + validation.PasswordSymbols

	out := make([]byte, 0, n)
	for _, set := range []string{tempLetters, tempDigits, validation.PasswordSymbols} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < n {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed classes are not always in front
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}

package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/clock"
	context_ "github.com/mkrupp/bestiary/internal/infra/context"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// Secret is the HMAC key used to sign tokens
	Secret string `env:"SECRET" default:""`

	// Development allows an empty Secret, falling back to DevelopmentSecret
	Development bool `env:"DEVELOPMENT" default:"false"`

	// TokenDuration is the validity duration of auth tokens in seconds
	TokenDuration int64 `env:"TOKEN_DURATION" default:"3600"` // 1h

	// FallbackUserID is the acting user for writes made without a token
	FallbackUserID int64 `env:"FALLBACK_USER_ID" default:"1"`

	// BcryptCost is the work factor for password hashes
	BcryptCost int `env:"BCRYPT_COST" default:"10"`
}

// Identity resolves the user on whose behalf a write is made.
type Identity interface {
	ActingUserID(ctx context.Context) int64
}

// FallbackIdentity is an Identity that uses its value for anonymous requests.
type FallbackIdentity int64

// ActingUserID returns the authenticated user or f.
func (f FallbackIdentity) ActingUserID(ctx context.Context) int64 {
	return EffectiveUserID(ctx, int64(f))
}

// CurrentUserID returns the user authenticated for the request, or 0.
func CurrentUserID(ctx context.Context) int64 {
	userID, _ := context_.UserIDFromContext(ctx)

	return userID
}

// EffectiveUserID returns CurrentUserID when positive, else fallback.
func EffectiveUserID(ctx context.Context, fallback int64) int64 {
	if userID := CurrentUserID(ctx); userID > 0 {
		return userID
	}

	return fallback
}

// AuthService provides authentication and user management functionality.
// It handles user registration, login, and token validation.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Log      logging.Logger
	Clock    clock.Clock

	secret []byte
}

var _ Identity = (*AuthService)(nil)

// NewAuthService creates a new AuthService on the given user repository.
// Returns ErrNoSecret when no signing secret is configured outside development mode.
func NewAuthService(ctx context.Context, userRepo user.Repository, cfg AuthConfig) (*AuthService, error) {
	secret, err := SigningSecret(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("signing secret: %w", err)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &AuthService{
		Config:   cfg,
		UserRepo: userRepo,
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
		Clock:    clock.New(),
		secret:   secret,
	}, nil
}

// WithSecret replaces the token signing secret.
func (s *AuthService) WithSecret(secret []byte) *AuthService {
	s.secret = secret

	return s
}

// RegisterUser creates a new account. The password is stored as a bcrypt hash.
// Returns ErrInvalidInput for missing fields or a malformed email and
// ErrUserAlreadyExists when the username or email is taken.
func (s *AuthService) RegisterUser(ctx context.Context, req domain.RegisterRequest) (_ *domain.User, err error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	log := s.Log.With(logging.Group("user", "username", username, "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if username == "" || email == "" || req.Password == "" {
		return nil, domain.Invalid("username, email and password are required")
	}

	if !isEmail(email) {
		return nil, domain.Invalid("invalid email")
	}

	if _, ok, err := s.UserRepo.GetUserByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	} else if ok {
		return nil, domain.ErrUserAlreadyExists
	}

	if _, ok, err := s.UserRepo.GetUserByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	} else if ok {
		return nil, domain.ErrUserAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Config.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errors.Join(domain.Invalid("password too long"), err)
		}

		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.UserRepo.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

// Login authenticates a user by email or username and issues a token.
// Any mismatch is reported as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (_ *domain.AuthTokenResponse, err error) {
	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}

	log := s.Log.With(logging.Group("login", "identifier", identifier))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	if identifier == "" || req.Password == "" {
		return nil, domain.Invalid("email (or username) and password are required")
	}

	var (
		found *domain.User
		ok    bool
	)

	if isEmail(identifier) {
		found, ok, err = s.UserRepo.GetUserByEmail(ctx, identifier)
	} else {
		found, ok, err = s.UserRepo.GetUserByUsername(ctx, identifier)
	}

	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(req.Password)); err != nil {
		return nil, errors.Join(domain.ErrInvalidCredentials, err)
	}

	token, err := s.IssueToken(found.ID, found.Username, found.Email)
	if err != nil {
		return nil, err
	}

	return &domain.AuthTokenResponse{
		AccessToken: token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   s.Config.TokenDuration,
		User:        found.Public(),
	}, nil
}

// IssueToken signs a token for the given user valid for TokenDuration seconds.
func (s *AuthService) IssueToken(userID int64, username, email string) (string, error) {
	now := s.Clock.Now()

	token, err := SignToken(domain.AuthClaims{
		Subject:   userID,
		Username:  username,
		Email:     email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Duration(s.Config.TokenDuration) * time.Second).Unix(),
	}, s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// ValidateToken verifies a token's signature and expiry and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (domain.AuthClaims, error) {
	claims, err := ValidateToken(tokenString, s.secret, s.Clock.Now())
	if err != nil {
		s.Log.DebugContext(ctx, "token rejected", "error", err)

		return domain.AuthClaims{}, fmt.Errorf("validate token: %w", err)
	}

	return claims, nil
}

// UserIDFromAuthorization returns the subject of a valid "Bearer <token>"
// header value, or 0.
func (s *AuthService) UserIDFromAuthorization(ctx context.Context, authorization string) int64 {
	tokenString, ok := BearerToken(authorization)
	if !ok {
		return 0
	}

	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil || claims.Subject <= 0 {
		return 0
	}

	return claims.Subject
}

// BearerToken extracts the token of a "Bearer <token>" header value. The
// scheme is matched case-insensitively.
func BearerToken(authorization string) (string, bool) {
	authorization = strings.TrimSpace(authorization)

	const scheme = "bearer "
	if len(authorization) < len(scheme) || !strings.EqualFold(authorization[:len(scheme)], scheme) {
		return "", false
	}

	tokenString := strings.TrimSpace(authorization[len(scheme):])

	return tokenString, tokenString != ""
}

// ActingUserID returns the authenticated user or the configured fallback.
func (s *AuthService) ActingUserID(ctx context.Context) int64 {
	return EffectiveUserID(ctx, s.Config.FallbackUserID)
}

// CurrentUser returns the account of the authenticated caller.
// Returns ErrNoAuthToken for anonymous requests.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	userID := CurrentUserID(ctx)
	if userID <= 0 {
		return nil, domain.ErrNoAuthToken
	}

	found, ok, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, domain.ErrInvalidAuthToken
	}

	return found, nil
}

// isEmail reports whether s is a bare address with a dotted domain.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}

	return strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

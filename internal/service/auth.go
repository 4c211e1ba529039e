package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/postfeed/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = time.Hour

const tokenIssuer = "postfeed"

var errInvalidCredentials = &domain.Error{Kind: domain.KindUnauthenticated, Message: "Invalid email or password."}

// Claims is the signed payload of a bearer token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string
	UserID string
}

// AuthService handles signup, login, token operations and the caller's
// own profile status.
type AuthService struct {
	users      domain.UserRepository
	jwtSecret  []byte
	bcryptCost int
	tokenTTL   time.Duration
	now        func() time.Time
	limiter    *RateLimiter
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) { s.tokenTTL = ttl }
}

// WithClock replaces time.Now for token issuing and verification.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithRateLimiter throttles Signup and Login per client address.
func WithRateLimiter(rl *RateLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = rl }
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, jwtSecret string, bcryptCost int, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		tokenTTL:   DefaultTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HashPassword returns a salted bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func (s *AuthService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a token for the given user that expires after the
// configured TTL.
func (s *AuthService) IssueToken(userID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the identity carried
// by the token. Any failure is reported as domain.ErrUnauthenticated.
func (s *AuthService) VerifyToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Signup validates input and creates an account with the default status.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Status:       domain.DefaultStatus,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.CheckPassword(password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, UserID: user.ID}, nil
}

// CurrentUser returns the authenticated caller's account.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found.")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Status returns the caller's status text.
func (s *AuthService) Status(ctx context.Context) (string, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

// UpdateStatus replaces the caller's status text.
func (s *AuthService) UpdateStatus(ctx context.Context, status string) (*domain.User, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	in := statusInput{Status: strings.TrimSpace(status)}
	if err := check(in); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateStatus(ctx, id.UserID, in.Status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found.")
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return user, nil
}

func (s *AuthService) throttle(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	addr := ClientFromContext(ctx)
	if addr == "" {
		return nil
	}
	if !s.limiter.Allow(addr) {
		return domain.ErrRateLimited
	}
	return nil
}

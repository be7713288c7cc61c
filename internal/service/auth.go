package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/marquee/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a login lasts unless configured otherwise.
const DefaultSessionTTL = 24 * time.Hour

// AuthService handles registration, credential checks, sessions and the
// signed tokens that reference them.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	jwtSecret  []byte
	bcryptCost int
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, jwtSecret string, bcryptCost int, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
	}
}

// SessionTTL is how long a login lasts; the cookie is given the same age.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a reader account. The stored email is trimmed and lower-cased.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password, and name are required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid email address", domain.ErrInvalidInput, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleReader,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks an email/password pair.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoSuchEmail
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrBadPassword
	}
	return user, nil
}

// Login authenticates, persists a session and returns a signed token for it.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.StartSession(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// StartSession opens a session for an already verified user, as happens
// right after registration.
func (s *AuthService) StartSession(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	token, err := s.generateJWT(session)
	if err != nil {
		return "", fmt.Errorf("generate jwt: %w", err)
	}
	return token, nil
}

// ResolveToken maps a token back to its user. Any failure, including an
// expired or deleted session, yields ErrNotAuthenticated.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}

	session, err := s.sessions.GetByID(ctx, claims.sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Expired(time.Now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, domain.ErrNotAuthenticated
	}
	if session.UserID != claims.userID {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout ends the session behind the token. Unknown or malformed tokens
// are ignored.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parseToken(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions whose lifetime has ended.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// PromoteToAdmin grants the admin role. It is reachable only from marqueectl.
func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) (*domain.User, error) {
	return s.setRole(ctx, email, domain.RoleAdmin)
}

// DemoteToReader revokes the admin role. It is reachable only from marqueectl.
func (s *AuthService) DemoteToReader(ctx context.Context, email string) (*domain.User, error) {
	return s.setRole(ctx, email, domain.RoleReader)
}

func (s *AuthService) setRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := s.users.SetRole(ctx, email, role); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoSuchEmail
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	return s.users.GetByEmail(ctx, email)
}

// ListUsers returns every account in id order.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) generateJWT(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(session.UserID, 10),
		"sid": session.ID,
		"iat": session.CreatedAt.Unix(),
		"exp": session.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

type tokenClaims struct {
	userID    int64
	sessionID string
}

func (s *AuthService) parseToken(tokenString string, opts ...jwt.ParserOption) (*tokenClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, err
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return nil, errors.New("token has no session id")
	}
	return &tokenClaims{userID: userID, sessionID: sid}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

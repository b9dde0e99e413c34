package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmorrell/taskdeck/database"
)

var (
	// ErrUnknownUsername is returned by Login when no user has the
	// given username. Kept distinct from ErrInvalidCredentials so the
	// client can suggest signing up.
	ErrUnknownUsername = errors.New("username does not exist")

	// ErrInvalidCredentials is returned when the password does not
	// match the stored hash.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrNoSession is returned when no valid session backs the request.
	ErrNoSession = errors.New("no active session")
)

// AuthService verifies credentials and manages server-side sessions.
// The session token handed to clients is a signed JWT whose subject is
// the session id; the session row stays authoritative so logout
// revokes access even while the signature remains valid.
type AuthService struct {
	store      *database.Store
	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewAuthService(store *database.Store, jwtSecret string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
	}
}

// Register creates a new user and logs it in immediately. The caller
// receives the safe user projection and a session token to set as the
// cookie. Returns database.ErrUsernameTaken on duplicate usernames.
func (s *AuthService) Register(ctx context.Context, username, password string) (database.SafeUser, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.SafeUser{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		return database.SafeUser{}, "", err
	}

	token, err := s.establishSession(ctx, user)
	if err != nil {
		return database.SafeUser{}, "", err
	}

	return user.Safe(), token, nil
}

// Login verifies the credentials and establishes a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (database.SafeUser, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return database.SafeUser{}, "", ErrUnknownUsername
	}
	if err != nil {
		return database.SafeUser{}, "", err
	}

	// Never compare plaintext to plaintext; bcrypt does the
	// constant-time comparison against the stored hash.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return database.SafeUser{}, "", ErrInvalidCredentials
	}

	token, err := s.establishSession(ctx, user)
	if err != nil {
		return database.SafeUser{}, "", err
	}

	return user.Safe(), token, nil
}

// Logout destroys the session behind the token. An unparseable token
// means there is nothing to destroy; a store failure is surfaced.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.parseSessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// CurrentUser resolves the token to its session and user. Missing,
// invalid, expired or revoked tokens all read as ErrNoSession.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (database.SafeUser, error) {
	sessionID, err := s.parseSessionToken(token)
	if err != nil {
		return database.SafeUser{}, ErrNoSession
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return database.SafeUser{}, ErrNoSession
	}
	if err != nil {
		return database.SafeUser{}, err
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return database.SafeUser{}, ErrNoSession
	}
	if err != nil {
		return database.SafeUser{}, err
	}

	return user.Safe(), nil
}

// establishSession creates the session row and signs its token. The
// write completes before the token is returned, so the response never
// carries a token the store does not know about.
func (s *AuthService) establishSession(ctx context.Context, user *database.User) (string, error) {
	session, err := s.store.CreateSession(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return "", err
	}
	return s.signSessionToken(session)
}

func (s *AuthService) signSessionToken(session *database.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   session.ID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseSessionToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("empty token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}

	return claims.Subject, nil
}

// SessionTTL reports how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

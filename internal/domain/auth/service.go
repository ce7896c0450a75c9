package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ems/internal/platform/querier"
)

// SessionStore persists server-side sessions keyed by the hashed session id.
type SessionStore interface {
	Create(ctx context.Context, employeeID, tokenHash string, expires time.Time) error
	Valid(ctx context.Context, tokenHash string) (bool, error)
	Revoke(ctx context.Context, tokenHash string) error
}

type AccountFinder interface {
	FindActiveByEmail(ctx context.Context, email string) (Account, error)
	FindActiveByID(ctx context.Context, id string) (Account, error)
}

type Service struct {
	Accounts AccountFinder
	Sessions SessionStore
	Secret   string
	TTL      time.Duration
}

func NewService(accounts AccountFinder, sessions SessionStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{Accounts: accounts, Sessions: sessions, Secret: secret, TTL: ttl}
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserContext `json:"-"`
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	account, err := s.Accounts.FindActiveByEmail(ctx, email)
	if err != nil {
		if querier.IsNoRows(err) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session: %w", err)
	}
	expires := time.Now().Add(s.TTL)
	if err := s.Sessions.Create(ctx, account.ID, HashToken(sessionID), expires); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	user := UserContext{
		EmployeeID: account.ID,
		Role:       account.Role,
		Name:       account.Name,
		Email:      account.Email,
		SessionID:  sessionID,
	}
	token, err := GenerateToken(s.Secret, Claims{
		EmployeeID: user.EmployeeID,
		Role:       user.Role,
		Name:       user.Name,
		Email:      user.Email,
		SessionID:  sessionID,
	}, s.TTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Sessions.Revoke(ctx, HashToken(sessionID))
}

// Authenticate validates a bearer token and its backing session. Role and
// profile come from the current employee row, not the token, so a role
// change or deactivation applies to tokens already issued.
func (s *Service) Authenticate(ctx context.Context, token string) (UserContext, error) {
	claims, err := ParseToken(s.Secret, token)
	if err != nil {
		return UserContext{}, err
	}
	if claims.SessionID == "" {
		return UserContext{}, ErrSessionExpired
	}
	ok, err := s.Sessions.Valid(ctx, HashToken(claims.SessionID))
	if err != nil {
		return UserContext{}, fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return UserContext{}, ErrSessionExpired
	}
	account, err := s.Accounts.FindActiveByID(ctx, claims.EmployeeID)
	if err != nil {
		if querier.IsNoRows(err) {
			return UserContext{}, ErrSessionExpired
		}
		return UserContext{}, fmt.Errorf("load account: %w", err)
	}
	return UserContext{
		EmployeeID: account.ID,
		Role:       account.Role,
		Name:       account.Name,
		Email:      account.Email,
		SessionID:  claims.SessionID,
	}, nil
}

func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrSessionExpired)
}

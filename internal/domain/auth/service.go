package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	Store    StoreAPI
	Secret   string
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl, Now: time.Now}
}

// Login checks the credentials and issues a signed token. Unknown users and
// wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email, Role: user.Rol}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: s.Now().Add(s.TokenTTL), User: user}, nil
}

func (s *Service) Me(ctx context.Context, id int64) (User, error) {
	return s.Store.GetUser(ctx, id)
}

// EnsureUser creates the user when the email is not registered yet. Existing
// users keep their password.
func (s *Service) EnsureUser(ctx context.Context, email, nombre, rol, password string) (bool, error) {
	if !ValidRole(rol) {
		return false, errors.New("unknown role " + rol)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	return s.Store.CreateUserIfMissing(ctx, strings.TrimSpace(email), nombre, rol, hash)
}

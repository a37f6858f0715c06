package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"

	"filevault/internal/pkg/jwt"
)

// Account is the single login allowed to use the API.
type Account struct {
	Login        string
	PasswordHash string
}

// NewAccount builds the account from configuration. A plain password is
// hashed once at startup; an explicit hash wins over it.
func NewAccount(login, password, passwordHash string) (Account, error) {
	if login == "" {
		return Account{}, nil
	}
	if passwordHash == "" {
		if password == "" {
			return Account{}, fmt.Errorf("USER_LOGIN is set but neither USER_PASSWORD nor USER_PASSWORD_HASH is")
		}
		hash, err := HashPassword(password)
		if err != nil {
			return Account{}, fmt.Errorf("hash USER_PASSWORD: %w", err)
		}
		passwordHash = hash
	}
	return Account{Login: login, PasswordHash: passwordHash}, nil
}

type Service struct {
	account Account
	tokens  *jwt.Service
	logger  *slog.Logger
}

func NewService(account Account, tokens *jwt.Service, logger *slog.Logger) *Service {
	return &Service{
		account: account,
		tokens:  tokens,
		logger:  logger.With(slog.String("component", "auth")),
	}
}

// Enabled reports whether an account is configured. Without one the API
// runs open.
func (s *Service) Enabled() bool {
	return s.account.Login != ""
}

// Login checks the credentials and returns a signed session token.
func (s *Service) Login(login, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(s.account.Login)) == 1
	passwordOK := CheckPassword(password, s.account.PasswordHash) == nil
	if !loginOK || !passwordOK {
		s.logger.Warn("login failed", slog.String("login", login))
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(s.account.Login)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	s.logger.Info("login succeeded", slog.String("login", login))
	return token, nil
}

// Authenticate returns the login a session token belongs to.
func (s *Service) Authenticate(token string) (string, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if claims.Subject != s.account.Login {
		return "", jwt.ErrInvalidToken
	}
	return claims.Subject, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/crypto"
	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

const defaultJournalName = "Main Journal"

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type AuthService struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
	logger *zap.Logger

	// serializes signups so exactly one account becomes the first admin
	signupMu sync.Mutex
}

func NewAuthService(st store.Store, secret []byte, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{store: st, secret: secret, ttl: ttl, logger: logger}
}

// TTL is the session lifetime.
func (s *AuthService) TTL() time.Duration { return s.ttl }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account. The very first account is an approved admin; later ones wait
// for approval. Every new account gets a default journal.
func (s *AuthService) Signup(ctx context.Context, c Credentials) (*models.User, error) {
	c.Email = normalizeEmail(c.Email)
	if err := validateStruct(c); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(c.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.signupMu.Lock()
	defer s.signupMu.Unlock()

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	first := count == 0
	u := &models.User{
		ID:           id.New(),
		Email:        c.Email,
		PasswordHash: hash,
		IsAdmin:      first,
		IsApproved:   first,
		CreatedAt:    now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.ensureDefaultJournal(ctx, u.ID); err != nil {
		// drop the account so the same email can sign up again
		if derr := s.store.DeleteUser(ctx, u.ID); derr != nil {
			s.logger.Error("remove incomplete account", zap.String("user_id", u.ID), zap.Error(derr))
		}
		return nil, fmt.Errorf("create default journal: %w", err)
	}
	s.logger.Info("user signed up",
		zap.String("user_id", u.ID),
		zap.Bool("admin", u.IsAdmin),
		zap.Bool("approved", u.IsApproved))
	return u, nil
}

// ensureDefaultJournal creates the default journal unless the user already has journals,
// which happens when legacy journals were adopted on account creation.
func (s *AuthService) ensureDefaultJournal(ctx context.Context, userID string) error {
	existing, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	ts := now()
	return s.store.CreateJournal(ctx, &models.Journal{
		ID:        id.New(),
		UserID:    userID,
		Name:      defaultJournalName,
		Settings:  models.JournalSettings{Currency: models.DefaultCurrency},
		IsDefault: true,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// Login checks credentials and records the login. Old base64 passwords are replaced by a
// bcrypt hash on first successful use.
func (s *AuthService) Login(ctx context.Context, c Credentials) (*models.User, error) {
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return nil, invalid("email and password required")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	ok, needsRehash := crypto.CheckPassword(u.PasswordHash, c.Password)
	if !ok {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	if !u.IsApproved {
		return nil, fmt.Errorf("%w: account is pending approval", apperrors.ErrForbidden)
	}

	if needsRehash {
		hash, err := crypto.HashPassword(c.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
		s.logger.Info("upgraded legacy password hash", zap.String("user_id", u.ID))
	}
	ts := now()
	u.LastLogin = &ts
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// IssueToken signs a session token for u.
func (s *AuthService) IssueToken(u *models.User) (string, error) {
	issued := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a session token and returns its user id.
func (s *AuthService) ParseToken(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid session", apperrors.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid subject", apperrors.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// Authenticate resolves a session token to an approved user.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*models.User, error) {
	userID, err := s.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsApproved {
		return nil, fmt.Errorf("%w: account is pending approval", apperrors.ErrForbidden)
	}
	return u, nil
}

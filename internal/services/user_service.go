package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/crypto"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// ProfileUpdate changes only the fields that are set. Changing the password requires the
// current one.
type ProfileUpdate struct {
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password" validate:"omitempty,min=6,max=72"`
	CurrentPassword string  `json:"currentPassword"`
}

type UserService struct {
	store  store.Store
	logger *zap.Logger
}

func NewUserService(st store.Store, logger *zap.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, normalizeEmail(email))
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*models.User, error) {
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		p.Email = &e
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.Password != nil {
		if p.CurrentPassword == "" {
			return nil, invalid("currentPassword is required to change the password")
		}
		if ok, _ := crypto.CheckPassword(u.PasswordHash, p.CurrentPassword); !ok {
			return nil, fmt.Errorf("%w: current password is incorrect", apperrors.ErrForbidden)
		}
		hash, err := crypto.HashPassword(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) Approve(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsApproved {
		return u, nil
	}
	u.IsApproved = true
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user approved", zap.String("user_id", id))
	return u, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot revoke their own.
func (s *UserService) SetAdmin(ctx context.Context, actorID, id string, isAdmin bool) (*models.User, error) {
	if actorID == id && !isAdmin {
		return nil, fmt.Errorf("%w: cannot remove your own admin rights", apperrors.ErrForbidden)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin
	if isAdmin {
		u.IsApproved = true
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("admin flag changed", zap.String("user_id", id), zap.Bool("admin", isAdmin), zap.String("by", actorID))
	return u, nil
}

// Delete removes a user with all their data. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: cannot delete your own account", apperrors.ErrForbidden)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actorID))
	return nil
}

func (s *UserService) Overview(ctx context.Context) (models.Overview, error) {
	return s.store.Overview(ctx)
}

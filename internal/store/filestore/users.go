package filestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
)

func (s *Store) userIndex(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) userIndexByEmail(email string) int {
	for i, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return i
		}
	}
	return -1
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userIndex(u.ID) >= 0 || s.userIndexByEmail(u.Email) >= 0 {
		return fmt.Errorf("%w: email %s", apperrors.ErrDuplicate, u.Email)
	}
	s.users = append(s.users, recordOf(*u))
	if err := s.write(usersFile, s.users); err != nil {
		s.users = s.users[:len(s.users)-1]
		return err
	}

	if s.pendingLegacy != nil {
		if owner, ok := s.legacyOwner(); ok && owner == u.ID {
			// the account exists either way; legacy journals stay pending for MigrateLegacy
			if err := s.adoptLegacy(owner); err != nil {
				s.logger.Warn("adopt legacy journals", zap.String("owner", owner), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.userIndex(id)
	if i < 0 {
		return nil, notFound("user", id)
	}
	u := s.users[i].user()
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.userIndexByEmail(email)
	if i < 0 {
		return nil, notFound("user", email)
	}
	u := s.users[i].user()
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, r := range s.users {
		out = append(out, r.user())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(u.ID)
	if i < 0 {
		return notFound("user", u.ID)
	}
	if j := s.userIndexByEmail(u.Email); j >= 0 && j != i {
		return fmt.Errorf("%w: email %s", apperrors.ErrDuplicate, u.Email)
	}
	prev := s.users[i]
	s.users[i] = recordOf(*u)
	if err := s.write(usersFile, s.users); err != nil {
		s.users[i] = prev
		return err
	}
	return nil
}

// DeleteUser writes all three documents. If any write fails nothing is deleted.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.userIndex(id)
	if i < 0 {
		return notFound("user", id)
	}
	prevUsers := s.users
	prevJournals := s.snapshot()
	prevPlaybooks := s.copyPlaybooks()

	users := make([]userRecord, 0, len(s.users)-1)
	users = append(users, s.users[:i]...)
	s.users = append(users, s.users[i+1:]...)
	delete(s.journals, id)
	delete(s.playbooks, id)

	return s.commit(func() {
		s.users = prevUsers
		s.journals = prevJournals
		s.playbooks = prevPlaybooks
	}, usersFile, journalsFile, playbooksFile)
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

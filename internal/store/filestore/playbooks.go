package filestore

import (
	"context"
	"fmt"
	"sort"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
)

func (s *Store) playbookIndex(userID, id string) int {
	for i, p := range s.playbooks[userID] {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) playbookExists(id string) bool {
	for _, ps := range s.playbooks {
		for _, p := range ps {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

func (s *Store) copyPlaybooks() map[string][]models.Playbook {
	out := make(map[string][]models.Playbook, len(s.playbooks))
	for uid, ps := range s.playbooks {
		out[uid] = append([]models.Playbook(nil), ps...)
	}
	return out
}

func (s *Store) commitPlaybooks(prev map[string][]models.Playbook) error {
	if err := s.write(playbooksFile, s.playbooks); err != nil {
		s.playbooks = prev
		return err
	}
	return nil
}

func (s *Store) CreatePlaybook(_ context.Context, p *models.Playbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playbookExists(p.ID) {
		return fmt.Errorf("%w: playbook %s", apperrors.ErrDuplicate, p.ID)
	}
	prev := s.copyPlaybooks()
	s.playbooks[p.UserID] = append(s.playbooks[p.UserID], *p)
	return s.commitPlaybooks(prev)
}

func (s *Store) GetPlaybook(_ context.Context, userID, id string) (*models.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.playbookIndex(userID, id)
	if i < 0 {
		return nil, notFound("playbook", id)
	}
	p := s.playbooks[userID][i]
	return &p, nil
}

func (s *Store) ListPlaybooks(_ context.Context, userID string) ([]models.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.Playbook{}, s.playbooks[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdatePlaybook(_ context.Context, p *models.Playbook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playbookIndex(p.UserID, p.ID)
	if i < 0 {
		return notFound("playbook", p.ID)
	}
	prev := s.copyPlaybooks()
	s.playbooks[p.UserID][i] = *p
	return s.commitPlaybooks(prev)
}

func (s *Store) DeletePlaybook(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.playbookIndex(userID, id)
	if i < 0 {
		return notFound("playbook", id)
	}
	prev := s.copyPlaybooks()
	ps := s.playbooks[userID]
	s.playbooks[userID] = append(ps[:i:i], ps[i+1:]...)
	return s.commitPlaybooks(prev)
}

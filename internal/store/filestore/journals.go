package filestore

import (
	"context"
	"fmt"
	"sort"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
)

func (s *Store) journalIndex(userID, id string) int {
	for i, j := range s.journals[userID] {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) journalExists(id string) bool {
	for _, js := range s.journals {
		for _, j := range js {
			if j.ID == id {
				return true
			}
		}
	}
	return false
}

// clearDefault unsets isDefault on every journal of userID except keepID.
func (s *Store) clearDefault(userID, keepID string) {
	js := s.journals[userID]
	for i := range js {
		if js[i].ID != keepID {
			js[i].IsDefault = false
		}
	}
}

func copyJournal(j models.Journal, withTrades bool) models.Journal {
	c := j
	c.Trades = nil
	if withTrades {
		c.Trades = make([]models.Trade, 0, len(j.Trades))
		for _, t := range j.Trades {
			c.Trades = append(c.Trades, t.Clone())
		}
		sortTrades(c.Trades)
	}
	return c
}

// snapshot returns a deep copy of the journals map for rollback.
func (s *Store) snapshot() map[string][]models.Journal {
	out := make(map[string][]models.Journal, len(s.journals))
	for uid, js := range s.journals {
		cp := make([]models.Journal, 0, len(js))
		for _, j := range js {
			c := copyJournal(j, true)
			if j.Trades == nil {
				c.Trades = nil
			}
			cp = append(cp, c)
		}
		out[uid] = cp
	}
	return out
}

// commitJournals persists the journals document, restoring prev when the write fails.
func (s *Store) commitJournals(prev map[string][]models.Journal) error {
	if err := s.write(journalsFile, s.journals); err != nil {
		s.journals = prev
		return err
	}
	return nil
}

// CreateJournal stores j without trades; trades are added with CreateTrade.
func (s *Store) CreateJournal(_ context.Context, j *models.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journalExists(j.ID) {
		return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, j.ID)
	}
	prev := s.snapshot()
	if j.IsDefault {
		s.clearDefault(j.UserID, j.ID)
	}
	s.journals[j.UserID] = append(s.journals[j.UserID], copyJournal(*j, false))
	return s.commitJournals(prev)
}

func (s *Store) GetJournal(_ context.Context, userID, id string) (*models.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.journalIndex(userID, id)
	if i < 0 {
		return nil, notFound("journal", id)
	}
	j := copyJournal(s.journals[userID][i], true)
	return &j, nil
}

func (s *Store) ListJournals(_ context.Context, userID string) ([]models.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	js := s.journals[userID]
	out := make([]models.Journal, 0, len(js))
	for _, j := range js {
		out = append(out, copyJournal(j, false))
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].IsDefault != out[b].IsDefault {
			return out[a].IsDefault
		}
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

// UpdateJournal replaces the journal's fields. Its trades are kept.
func (s *Store) UpdateJournal(_ context.Context, j *models.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.journalIndex(j.UserID, j.ID)
	if i < 0 {
		return notFound("journal", j.ID)
	}
	prev := s.snapshot()
	if j.IsDefault {
		s.clearDefault(j.UserID, j.ID)
	}
	trades := s.journals[j.UserID][i].Trades
	updated := copyJournal(*j, false)
	updated.Trades = trades
	s.journals[j.UserID][i] = updated
	return s.commitJournals(prev)
}

func (s *Store) DeleteJournal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.journalIndex(userID, id)
	if i < 0 {
		return notFound("journal", id)
	}
	prev := s.snapshot()
	js := s.journals[userID]
	s.journals[userID] = append(js[:i:i], js[i+1:]...)
	return s.commitJournals(prev)
}

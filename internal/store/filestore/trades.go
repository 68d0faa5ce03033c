package filestore

import (
	"context"
	"fmt"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// findTrade returns the journal and trade index of a user's trade.
func (s *Store) findTrade(userID, id string) (int, int) {
	for ji, j := range s.journals[userID] {
		for ti, t := range j.Trades {
			if t.ID == id {
				return ji, ti
			}
		}
	}
	return -1, -1
}

func (s *Store) tradeExists(id string) bool {
	for _, js := range s.journals {
		for _, j := range js {
			for _, t := range j.Trades {
				if t.ID == id {
					return true
				}
			}
		}
	}
	return false
}

func (s *Store) CreateTrade(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ji := s.journalIndex(t.UserID, t.JournalID)
	if ji < 0 {
		return notFound("journal", t.JournalID)
	}
	if s.tradeExists(t.ID) {
		return fmt.Errorf("%w: trade %s", apperrors.ErrDuplicate, t.ID)
	}
	prev := s.snapshot()
	j := &s.journals[t.UserID][ji]
	j.Trades = append(j.Trades, t.Clone())
	return s.commitJournals(prev)
}

func (s *Store) GetTrade(_ context.Context, userID, id string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ji, ti := s.findTrade(userID, id)
	if ji < 0 {
		return nil, notFound("trade", id)
	}
	t := s.journals[userID][ji].Trades[ti].Clone()
	return &t, nil
}

func (s *Store) ListTrades(_ context.Context, userID string, f store.TradeFilter) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Trade{}
	for _, j := range s.journals[userID] {
		for _, t := range j.Trades {
			if f.Match(t) {
				out = append(out, t.Clone())
			}
		}
	}
	sortTrades(out)
	return out, nil
}

// UpdateTrade replaces the trade, moving it when its journal changed.
func (s *Store) UpdateTrade(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ji, ti := s.findTrade(t.UserID, t.ID)
	if ji < 0 {
		return notFound("trade", t.ID)
	}
	target := s.journalIndex(t.UserID, t.JournalID)
	if target < 0 {
		return notFound("journal", t.JournalID)
	}
	prev := s.snapshot()
	js := s.journals[t.UserID]
	if target == ji {
		js[ji].Trades[ti] = t.Clone()
	} else {
		trades := js[ji].Trades
		js[ji].Trades = append(trades[:ti:ti], trades[ti+1:]...)
		js[target].Trades = append(js[target].Trades, t.Clone())
	}
	return s.commitJournals(prev)
}

func (s *Store) DeleteTrade(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ji, ti := s.findTrade(userID, id)
	if ji < 0 {
		return notFound("trade", id)
	}
	prev := s.snapshot()
	j := &s.journals[userID][ji]
	j.Trades = append(j.Trades[:ti:ti], j.Trades[ti+1:]...)
	return s.commitJournals(prev)
}

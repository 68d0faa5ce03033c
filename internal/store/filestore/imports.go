package filestore

import (
	"context"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// Import applies the batch in memory and then writes both documents. A failed write
// restores memory and any document already replaced.
func (s *Store) Import(_ context.Context, b *store.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevJournals := s.snapshot()
	prevPlaybooks := s.copyPlaybooks()

	for i := range b.Journals {
		s.importJournal(b.UserID, &b.Journals[i])
	}
	for i := range b.Playbooks {
		s.importPlaybook(b.UserID, &b.Playbooks[i])
	}

	return s.commit(func() {
		s.journals = prevJournals
		s.playbooks = prevPlaybooks
	}, journalsFile, playbooksFile)
}

func (s *Store) importJournal(userID string, j *models.Journal) {
	trades := j.Trades
	j.UserID = userID
	j.IsDefault = false

	if i := s.journalIndex(userID, j.ID); i >= 0 {
		cur := &s.journals[userID][i]
		j.IsDefault = cur.IsDefault
		j.CreatedAt = cur.CreatedAt
		kept := cur.Trades
		*cur = copyJournal(*j, false)
		cur.Trades = kept
	} else {
		if s.journalExists(j.ID) {
			j.ID = id.New()
		}
		s.journals[userID] = append(s.journals[userID], copyJournal(*j, false))
	}

	for k := range trades {
		t := &trades[k]
		t.UserID = userID
		t.JournalID = j.ID
		s.importTrade(t)
	}
	j.Trades = trades
}

func (s *Store) importTrade(t *models.Trade) {
	if ji, ti := s.findTrade(t.UserID, t.ID); ji >= 0 {
		cur := s.journals[t.UserID][ji].Trades
		t.CreatedAt = cur[ti].CreatedAt
		s.journals[t.UserID][ji].Trades = append(cur[:ti:ti], cur[ti+1:]...)
	} else if s.tradeExists(t.ID) {
		t.ID = id.New()
	}
	j := &s.journals[t.UserID][s.journalIndex(t.UserID, t.JournalID)]
	j.Trades = append(j.Trades, t.Clone())
}

func (s *Store) importPlaybook(userID string, p *models.Playbook) {
	p.UserID = userID
	if i := s.playbookIndex(userID, p.ID); i >= 0 {
		p.CreatedAt = s.playbooks[userID][i].CreatedAt
		s.playbooks[userID][i] = *p
		return
	}
	if s.playbookExists(p.ID) {
		p.ID = id.New()
	}
	s.playbooks[userID] = append(s.playbooks[userID], *p)
}

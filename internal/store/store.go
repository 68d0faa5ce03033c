// Package store defines persistence for users, journals, trades and playbooks.
// Implementations live in filestore (JSON documents) and sqlstore (Postgres or SQLite).
package store

import (
	"context"
	"strings"
	"time"

	"tradejournal/internal/models"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user together with their journals, trades and playbooks.
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

type JournalStore interface {
	// CreateJournal persists j. When j.IsDefault is set the flag is cleared on the
	// user's other journals.
	CreateJournal(ctx context.Context, j *models.Journal) error
	// GetJournal returns the journal with its trades.
	GetJournal(ctx context.Context, userID, id string) (*models.Journal, error)
	// ListJournals returns the user's journals without trades, default first then by
	// creation time.
	ListJournals(ctx context.Context, userID string) ([]models.Journal, error)
	UpdateJournal(ctx context.Context, j *models.Journal) error
	DeleteJournal(ctx context.Context, userID, id string) error
}

type TradeStore interface {
	// CreateTrade fails with apperrors.ErrNotFound when t.JournalID is not owned by t.UserID.
	CreateTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, userID, id string) (*models.Trade, error)
	// ListTrades returns matching trades, newest entry first.
	ListTrades(ctx context.Context, userID string, f TradeFilter) ([]models.Trade, error)
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, userID, id string) error
}

type PlaybookStore interface {
	CreatePlaybook(ctx context.Context, p *models.Playbook) error
	GetPlaybook(ctx context.Context, userID, id string) (*models.Playbook, error)
	ListPlaybooks(ctx context.Context, userID string) ([]models.Playbook, error)
	UpdatePlaybook(ctx context.Context, p *models.Playbook) error
	DeletePlaybook(ctx context.Context, userID, id string) error
}

// ImportBatch is client data for one user. Journals carry their trades.
type ImportBatch struct {
	UserID    string
	Journals  []models.Journal
	Playbooks []models.Playbook
}

type ImportStore interface {
	// Import upserts the batch as one unit: every item is written or none is. An item the
	// user already owns is updated in place and keeps its CreatedAt; a journal also keeps
	// IsDefault. New journals are never the default. An id owned by another user is
	// replaced with a fresh one. The batch is updated with the stored ids.
	Import(ctx context.Context, b *ImportBatch) error
}

type Store interface {
	UserStore
	JournalStore
	TradeStore
	PlaybookStore
	ImportStore

	Overview(ctx context.Context) (models.Overview, error)
	Close() error
}

// TradeFilter narrows ListTrades. Zero fields match everything. From and To bound the
// entry date inclusively.
type TradeFilter struct {
	JournalID string
	Symbol    string
	Playbook  string
	Status    string
	From      *time.Time
	To        *time.Time
}

// Match reports whether t passes the filter.
func (f TradeFilter) Match(t models.Trade) bool {
	if f.JournalID != "" && t.JournalID != f.JournalID {
		return false
	}
	if f.Symbol != "" && !strings.EqualFold(t.Symbol, f.Symbol) {
		return false
	}
	if f.Playbook != "" && t.Playbook != f.Playbook {
		return false
	}
	switch f.Status {
	case StatusOpen:
		if t.IsClosed() {
			return false
		}
	case StatusClosed:
		if !t.IsClosed() {
			return false
		}
	}
	if f.From != nil && t.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && t.EntryDate.After(*f.To) {
		return false
	}
	return true
}

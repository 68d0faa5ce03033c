package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// Import runs the whole batch in one transaction.
func (s *Store) Import(ctx context.Context, b *store.ImportBatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range b.Journals {
			if err := importJournal(ctx, tx, b.UserID, &b.Journals[i]); err != nil {
				return err
			}
		}
		for i := range b.Playbooks {
			if err := importPlaybook(ctx, tx, b.UserID, &b.Playbooks[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ownerOf returns the user owning the row with id in table, or "" when there is none.
func ownerOf(ctx context.Context, tx *sqlx.Tx, table, id string) (string, error) {
	var owner string
	err := tx.GetContext(ctx, &owner, tx.Rebind(`SELECT user_id FROM `+table+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("check %s: %w", table, err)
	}
	return owner, nil
}

func importJournal(ctx context.Context, tx *sqlx.Tx, userID string, j *models.Journal) error {
	j.UserID = userID
	j.IsDefault = false

	owner, err := ownerOf(ctx, tx, "journals", j.ID)
	if err != nil {
		return err
	}
	switch owner {
	case userID:
		err := tx.GetContext(ctx, &j.IsDefault, tx.Rebind(`SELECT is_default FROM journals WHERE id = ?`), j.ID)
		if err != nil {
			return fmt.Errorf("check journal: %w", err)
		}
		if err := updateJournal(ctx, tx, j); err != nil {
			return err
		}
	case "":
		if err := insertJournal(ctx, tx, j); err != nil {
			return err
		}
	default:
		j.ID = id.New()
		if err := insertJournal(ctx, tx, j); err != nil {
			return err
		}
	}

	for k := range j.Trades {
		t := &j.Trades[k]
		t.UserID = userID
		t.JournalID = j.ID
		if err := importTrade(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

func importTrade(ctx context.Context, tx *sqlx.Tx, t *models.Trade) error {
	owner, err := ownerOf(ctx, tx, "trades", t.ID)
	if err != nil {
		return err
	}
	switch owner {
	case t.UserID:
		return updateTrade(ctx, tx, t)
	case "":
	default:
		t.ID = id.New()
	}
	return insertTrade(ctx, tx, t)
}

func importPlaybook(ctx context.Context, tx *sqlx.Tx, userID string, p *models.Playbook) error {
	p.UserID = userID
	owner, err := ownerOf(ctx, tx, "playbooks", p.ID)
	if err != nil {
		return err
	}
	switch owner {
	case userID:
		return updatePlaybook(ctx, tx, p)
	case "":
	default:
		p.ID = id.New()
	}
	return insertPlaybook(ctx, tx, p)
}

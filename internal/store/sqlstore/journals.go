package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tradejournal/internal/models"
)

const journalColumns = `id, user_id, name, description, icon, color, settings, is_default, is_template, created_at, updated_at`

func clearDefault(ctx context.Context, tx *sqlx.Tx, userID, keepID string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE journals SET is_default = ? WHERE user_id = ? AND id <> ?`),
		false, userID, keepID)
	return err
}

func insertJournal(ctx context.Context, tx *sqlx.Tx, j *models.Journal) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO journals (`+journalColumns+`)
        VALUES (:id, :user_id, :name, :description, :icon, :color, :settings, :is_default, :is_template, :created_at, :updated_at)`, j)
	return mapWriteErr(err, "journal", j.ID)
}

// updateJournal leaves created_at untouched.
func updateJournal(ctx context.Context, tx *sqlx.Tx, j *models.Journal) error {
	res, err := tx.NamedExecContext(ctx, `UPDATE journals SET
        name = :name,
        description = :description,
        icon = :icon,
        color = :color,
        settings = :settings,
        is_default = :is_default,
        is_template = :is_template,
        updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`, j)
	if err != nil {
		return mapWriteErr(err, "journal", j.ID)
	}
	return expectRow(res, "journal", j.ID)
}

func (s *Store) CreateJournal(ctx context.Context, j *models.Journal) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if j.IsDefault {
			if err := clearDefault(ctx, tx, j.UserID, j.ID); err != nil {
				return err
			}
		}
		return insertJournal(ctx, tx, j)
	})
}

func (s *Store) GetJournal(ctx context.Context, userID, id string) (*models.Journal, error) {
	var j models.Journal
	err := s.db.GetContext(ctx, &j, s.db.Rebind(`SELECT `+journalColumns+` FROM journals WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, mapReadErr(err, "journal", id)
	}
	j.Trades = []models.Trade{}
	err = s.db.SelectContext(ctx, &j.Trades, s.db.Rebind(`SELECT `+tradeColumns+` FROM trades
        WHERE journal_id = ? AND user_id = ? ORDER BY entry_date DESC, id DESC`), id, userID)
	if err != nil {
		return nil, fmt.Errorf("load journal trades: %w", err)
	}
	return &j, nil
}

func (s *Store) ListJournals(ctx context.Context, userID string) ([]models.Journal, error) {
	journals := []models.Journal{}
	err := s.db.SelectContext(ctx, &journals, s.db.Rebind(`SELECT `+journalColumns+` FROM journals
        WHERE user_id = ? ORDER BY is_default DESC, created_at, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return journals, nil
}

func (s *Store) UpdateJournal(ctx context.Context, j *models.Journal) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateJournal(ctx, tx, j); err != nil {
			return err
		}
		if j.IsDefault {
			return clearDefault(ctx, tx, j.UserID, j.ID)
		}
		return nil
	})
}

func (s *Store) DeleteJournal(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM trades WHERE journal_id = ? AND user_id = ?`), id, userID); err != nil {
			return fmt.Errorf("delete journal trades: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM journals WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return fmt.Errorf("delete journal: %w", err)
		}
		return expectRow(res, "journal", id)
	})
}

package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

const tradeColumns = `id, journal_id, user_id, symbol, trade_type, quantity, entry_price, exit_price,
    stop_loss, take_profit, fees, playbook, risk, mood, rating, notes, screenshots, tags,
    entry_date, exit_date, created_at, updated_at`

// ownsJournal fails with ErrNotFound unless journalID belongs to userID.
func ownsJournal(ctx context.Context, tx *sqlx.Tx, userID, journalID string) error {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM journals WHERE id = ? AND user_id = ?`), journalID, userID)
	if err != nil {
		return fmt.Errorf("check journal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return nil
}

func insertTrade(ctx context.Context, tx *sqlx.Tx, t *models.Trade) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO trades (`+tradeColumns+`) VALUES (
        :id, :journal_id, :user_id, :symbol, :trade_type, :quantity, :entry_price, :exit_price,
        :stop_loss, :take_profit, :fees, :playbook, :risk, :mood, :rating, :notes, :screenshots, :tags,
        :entry_date, :exit_date, :created_at, :updated_at)`, t)
	return mapWriteErr(err, "trade", t.ID)
}

// updateTrade leaves created_at untouched.
func updateTrade(ctx context.Context, tx *sqlx.Tx, t *models.Trade) error {
	res, err := tx.NamedExecContext(ctx, `UPDATE trades SET
        journal_id = :journal_id,
        symbol = :symbol,
        trade_type = :trade_type,
        quantity = :quantity,
        entry_price = :entry_price,
        exit_price = :exit_price,
        stop_loss = :stop_loss,
        take_profit = :take_profit,
        fees = :fees,
        playbook = :playbook,
        risk = :risk,
        mood = :mood,
        rating = :rating,
        notes = :notes,
        screenshots = :screenshots,
        tags = :tags,
        entry_date = :entry_date,
        exit_date = :exit_date,
        updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`, t)
	if err != nil {
		return mapWriteErr(err, "trade", t.ID)
	}
	return expectRow(res, "trade", t.ID)
}

func (s *Store) CreateTrade(ctx context.Context, t *models.Trade) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsJournal(ctx, tx, t.UserID, t.JournalID); err != nil {
			return err
		}
		return insertTrade(ctx, tx, t)
	})
}

func (s *Store) GetTrade(ctx context.Context, userID, id string) (*models.Trade, error) {
	var t models.Trade
	err := s.db.GetContext(ctx, &t, s.db.Rebind(`SELECT `+tradeColumns+` FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, mapReadErr(err, "trade", id)
	}
	return &t, nil
}

func (s *Store) ListTrades(ctx context.Context, userID string, f store.TradeFilter) ([]models.Trade, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.JournalID != "" {
		where = append(where, "journal_id = ?")
		args = append(args, f.JournalID)
	}
	if f.Symbol != "" {
		where = append(where, "UPPER(symbol) = ?")
		args = append(args, strings.ToUpper(f.Symbol))
	}
	if f.Playbook != "" {
		where = append(where, "playbook = ?")
		args = append(args, f.Playbook)
	}
	switch f.Status {
	case store.StatusOpen:
		where = append(where, "exit_price IS NULL")
	case store.StatusClosed:
		where = append(where, "exit_price IS NOT NULL")
	}
	if f.From != nil {
		where = append(where, "entry_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "entry_date <= ?")
		args = append(args, f.To.UTC())
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY entry_date DESC, id DESC`
	trades := []models.Trade{}
	if err := s.db.SelectContext(ctx, &trades, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}

func (s *Store) UpdateTrade(ctx context.Context, t *models.Trade) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ownsJournal(ctx, tx, t.UserID, t.JournalID); err != nil {
			return err
		}
		return updateTrade(ctx, tx, t)
	})
}

func (s *Store) DeleteTrade(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM trades WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	return expectRow(res, "trade", id)
}

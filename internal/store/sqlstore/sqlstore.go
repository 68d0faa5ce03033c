// Package sqlstore implements store.Store with sqlx over Postgres (pgx) or SQLite.
// Queries are written with ? placeholders and rebound for the connected driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New wraps an open, migrated database.
func New(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn in a transaction. fn must use tx only: SQLite runs on a single connection.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

// isUniqueViolation recognizes duplicate keys from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func mapWriteErr(err error, kind, key string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s %s", apperrors.ErrDuplicate, kind, key)
	}
	return fmt.Errorf("save %s: %w", kind, err)
}

func mapReadErr(err error, kind, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, key)
	}
	return fmt.Errorf("load %s: %w", kind, err)
}

// expectRow turns a zero-row update or delete into ErrNotFound.
func expectRow(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, key)
	}
	return nil
}

func (s *Store) Overview(ctx context.Context) (models.Overview, error) {
	var o models.Overview
	err := s.db.GetContext(ctx, &o, `SELECT
    (SELECT COUNT(*) FROM users) AS users,
    (SELECT COUNT(*) FROM users WHERE NOT is_approved) AS pending_users,
    (SELECT COUNT(*) FROM journals) AS journals,
    (SELECT COUNT(*) FROM trades) AS trades,
    (SELECT COUNT(*) FROM playbooks) AS playbooks`)
	if err != nil {
		return o, fmt.Errorf("overview: %w", err)
	}
	return o, nil
}

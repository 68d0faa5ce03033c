package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"tradejournal/internal/models"
)

const userColumns = `id, email, password_hash, is_admin, is_approved, created_at, last_login`

// emails are stored lower-cased so the UNIQUE constraint is case-insensitive.
func normalized(u *models.User) models.User {
	c := *u
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := normalized(u)
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES (:id, :email, :password_hash, :is_admin, :is_approved, :created_at, :last_login)`, row)
	return mapWriteErr(err, "user", row.Email)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, mapReadErr(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, mapReadErr(err, "user", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	row := normalized(u)
	res, err := s.db.NamedExecContext(ctx, `UPDATE users SET
        email = :email,
        password_hash = :password_hash,
        is_admin = :is_admin,
        is_approved = :is_approved,
        last_login = :last_login
        WHERE id = :id`, row)
	if err != nil {
		return mapWriteErr(err, "user", row.Email)
	}
	return expectRow(res, "user", u.ID)
}

// DeleteUser removes the user's trades, journals and playbooks in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"trades", "journals", "playbooks"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return expectRow(res, "user", id)
	})
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tradejournal/internal/models"
)

const playbookColumns = `id, user_id, name, description, setup, entry_rules, exit_rules, risk_rules, notes, created_at, updated_at`

func insertPlaybook(ctx context.Context, e sqlx.ExtContext, p *models.Playbook) error {
	_, err := sqlx.NamedExecContext(ctx, e, `INSERT INTO playbooks (`+playbookColumns+`)
        VALUES (:id, :user_id, :name, :description, :setup, :entry_rules, :exit_rules, :risk_rules, :notes, :created_at, :updated_at)`, p)
	return mapWriteErr(err, "playbook", p.ID)
}

func (s *Store) CreatePlaybook(ctx context.Context, p *models.Playbook) error {
	return insertPlaybook(ctx, s.db, p)
}

func (s *Store) GetPlaybook(ctx context.Context, userID, id string) (*models.Playbook, error) {
	var p models.Playbook
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+playbookColumns+` FROM playbooks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return nil, mapReadErr(err, "playbook", id)
	}
	return &p, nil
}

func (s *Store) ListPlaybooks(ctx context.Context, userID string) ([]models.Playbook, error) {
	playbooks := []models.Playbook{}
	err := s.db.SelectContext(ctx, &playbooks, s.db.Rebind(`SELECT `+playbookColumns+` FROM playbooks
        WHERE user_id = ? ORDER BY created_at, id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list playbooks: %w", err)
	}
	return playbooks, nil
}

// updatePlaybook leaves created_at untouched.
func updatePlaybook(ctx context.Context, e sqlx.ExtContext, p *models.Playbook) error {
	res, err := sqlx.NamedExecContext(ctx, e, `UPDATE playbooks SET
        name = :name,
        description = :description,
        setup = :setup,
        entry_rules = :entry_rules,
        exit_rules = :exit_rules,
        risk_rules = :risk_rules,
        notes = :notes,
        updated_at = :updated_at
        WHERE id = :id AND user_id = :user_id`, p)
	if err != nil {
		return mapWriteErr(err, "playbook", p.ID)
	}
	return expectRow(res, "playbook", p.ID)
}

func (s *Store) UpdatePlaybook(ctx context.Context, p *models.Playbook) error {
	return updatePlaybook(ctx, s.db, p)
}

func (s *Store) DeletePlaybook(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM playbooks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete playbook: %w", err)
	}
	return expectRow(res, "playbook", id)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

// ImportPayload is data a client kept locally: journals with embedded trades, and playbooks.
type ImportPayload struct {
	Journals  []models.Journal  `json:"journals"`
	Playbooks []models.Playbook `json:"playbooks"`
}

type ImportResult struct {
	Journals  int `json:"journals" yaml:"journals"`
	Trades    int `json:"trades" yaml:"trades"`
	Playbooks int `json:"playbooks" yaml:"playbooks"`
}

// ImportService upserts client-side data into the caller's account. Everything is
// validated before anything is written, and the store applies the batch as one unit.
type ImportService struct {
	store  store.Store
	enc    *EncryptionService
	logger *zap.Logger
}

func NewImportService(st store.Store, enc *EncryptionService, logger *zap.Logger) *ImportService {
	return &ImportService{store: st, enc: enc, logger: logger}
}

func (s *ImportService) Import(ctx context.Context, userID string, p ImportPayload) (*ImportResult, error) {
	if err := s.check(&p); err != nil {
		return nil, err
	}
	ts := now()
	b := &store.ImportBatch{
		UserID:    userID,
		Journals:  append([]models.Journal(nil), p.Journals...),
		Playbooks: append([]models.Playbook(nil), p.Playbooks...),
	}
	res := &ImportResult{Journals: len(b.Journals), Playbooks: len(b.Playbooks)}

	for i := range b.Journals {
		j := &b.Journals[i]
		j.UserID = userID
		if j.ID == "" {
			j.ID = id.New()
		}
		if j.CreatedAt.IsZero() {
			j.CreatedAt = ts
		}
		j.UpdatedAt = ts

		trades := make([]models.Trade, 0, len(j.Trades))
		for k := range j.Trades {
			t := j.Trades[k].Clone()
			t.UserID = userID
			if t.ID == "" {
				t.ID = id.New()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = ts
			}
			t.UpdatedAt = ts
			if err := s.enc.EncryptTrade(&t); err != nil {
				return nil, err
			}
			trades = append(trades, t)
		}
		j.Trades = trades
		res.Trades += len(trades)
	}
	for i := range b.Playbooks {
		pb := &b.Playbooks[i]
		pb.UserID = userID
		if pb.ID == "" {
			pb.ID = id.New()
		}
		if pb.CreatedAt.IsZero() {
			pb.CreatedAt = ts
		}
		pb.UpdatedAt = ts
	}

	if err := s.store.Import(ctx, b); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	s.logger.Info("client data imported",
		zap.String("user_id", userID),
		zap.Int("journals", res.Journals),
		zap.Int("trades", res.Trades),
		zap.Int("playbooks", res.Playbooks))
	return res, nil
}

// check normalizes and validates the whole payload.
func (s *ImportService) check(p *ImportPayload) error {
	for i := range p.Journals {
		j := &p.Journals[i]
		j.Name = strings.TrimSpace(j.Name)
		if j.Name == "" {
			return invalid("journals[%d]: name is required", i)
		}
		j.Settings = normalizeSettings(j.Settings)
		if err := validateStruct(j.Settings); err != nil {
			return fmt.Errorf("journals[%d]: %w", i, err)
		}
		for k := range j.Trades {
			t := &j.Trades[k]
			if t.EntryDate.IsZero() {
				t.EntryDate = j.CreatedAt
				if t.EntryDate.IsZero() {
					t.EntryDate = now()
				}
			}
			if err := checkTrade(t); err != nil {
				return fmt.Errorf("journals[%d].trades[%d]: %w", i, k, err)
			}
		}
	}
	for i := range p.Playbooks {
		pb := &p.Playbooks[i]
		pb.Name = strings.TrimSpace(pb.Name)
		if pb.Name == "" {
			return invalid("playbooks[%d]: name is required", i)
		}
	}
	return nil
}

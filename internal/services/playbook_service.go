package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/stats"
	"tradejournal/internal/store"
)

type PlaybookInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Setup       string `json:"setup"`
	EntryRules  string `json:"entryRules"`
	ExitRules   string `json:"exitRules"`
	RiskRules   string `json:"riskRules"`
	Notes       string `json:"notes"`
}

type PlaybookPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Setup       *string `json:"setup"`
	EntryRules  *string `json:"entryRules"`
	ExitRules   *string `json:"exitRules"`
	RiskRules   *string `json:"riskRules"`
	Notes       *string `json:"notes"`
}

// PlaybookSummary is a playbook's performance over the trades that reference it.
type PlaybookSummary struct {
	Name string `json:"name"`
	stats.PlaybookStats
}

type PlaybookService struct {
	store  store.Store
	logger *zap.Logger
}

func NewPlaybookService(st store.Store, logger *zap.Logger) *PlaybookService {
	return &PlaybookService{store: st, logger: logger}
}

func (s *PlaybookService) List(ctx context.Context, userID string) ([]models.Playbook, error) {
	return s.store.ListPlaybooks(ctx, userID)
}

func (s *PlaybookService) Get(ctx context.Context, userID, id string) (*models.Playbook, error) {
	return s.store.GetPlaybook(ctx, userID, id)
}

func (s *PlaybookService) Create(ctx context.Context, userID string, in PlaybookInput) (*models.Playbook, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ts := now()
	p := &models.Playbook{
		ID:          id.New(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Setup:       in.Setup,
		EntryRules:  in.EntryRules,
		ExitRules:   in.ExitRules,
		RiskRules:   in.RiskRules,
		Notes:       in.Notes,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.store.CreatePlaybook(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("playbook created", zap.String("user_id", userID), zap.String("playbook_id", p.ID))
	return p, nil
}

func (s *PlaybookService) Update(ctx context.Context, userID, id string, patch PlaybookPatch) (*models.Playbook, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	p, err := s.store.GetPlaybook(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	setString(&p.Description, patch.Description)
	setString(&p.Setup, patch.Setup)
	setString(&p.EntryRules, patch.EntryRules)
	setString(&p.ExitRules, patch.ExitRules)
	setString(&p.RiskRules, patch.RiskRules)
	setString(&p.Notes, patch.Notes)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		p.Name = name
	}
	p.UpdatedAt = now()
	if err := s.store.UpdatePlaybook(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlaybookService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeletePlaybook(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("playbook deleted", zap.String("user_id", userID), zap.String("playbook_id", id))
	return nil
}

// Stats summarizes every playbook of the user, including ones without trades.
func (s *PlaybookService) Stats(ctx context.Context, userID string) ([]PlaybookSummary, error) {
	playbooks, err := s.store.ListPlaybooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.ListTrades(ctx, userID, store.TradeFilter{})
	if err != nil {
		return nil, err
	}
	byID := map[string]stats.PlaybookStats{}
	for _, ps := range stats.ByPlaybook(trades) {
		byID[ps.PlaybookID] = ps
	}
	out := make([]PlaybookSummary, 0, len(playbooks))
	for _, p := range playbooks {
		ps, ok := byID[p.ID]
		if !ok {
			ps = stats.PlaybookStats{PlaybookID: p.ID}
		}
		out = append(out, PlaybookSummary{Name: p.Name, PlaybookStats: ps})
	}
	return out, nil
}

func (s *PlaybookService) StatsFor(ctx context.Context, userID, id string) (*PlaybookSummary, error) {
	p, err := s.store.GetPlaybook(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.ListTrades(ctx, userID, store.TradeFilter{Playbook: id})
	if err != nil {
		return nil, err
	}
	return &PlaybookSummary{Name: p.Name, PlaybookStats: stats.ForPlaybook(trades, id)}, nil
}

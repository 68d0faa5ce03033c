package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

type JournalInput struct {
	Name        string                  `json:"name" validate:"required,max=100"`
	Description string                  `json:"description" validate:"max=2000"`
	Icon        string                  `json:"icon" validate:"max=50"`
	Color       string                  `json:"color" validate:"max=50"`
	Settings    *models.JournalSettings `json:"settings"`
	IsDefault   bool                    `json:"isDefault"`
	IsTemplate  bool                    `json:"isTemplate"`
	TemplateID  string                  `json:"templateId"`
}

type JournalPatch struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
	Icon        *string                 `json:"icon" validate:"omitempty,max=50"`
	Color       *string                 `json:"color" validate:"omitempty,max=50"`
	Settings    *models.JournalSettings `json:"settings"`
	IsDefault   *bool                   `json:"isDefault"`
	IsTemplate  *bool                   `json:"isTemplate"`
}

type JournalService struct {
	store  store.Store
	enc    *EncryptionService
	logger *zap.Logger
}

func NewJournalService(st store.Store, enc *EncryptionService, logger *zap.Logger) *JournalService {
	return &JournalService{store: st, enc: enc, logger: logger}
}

func normalizeSettings(s models.JournalSettings) models.JournalSettings {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = models.DefaultCurrency
	}
	return s
}

func (s *JournalService) List(ctx context.Context, userID string) ([]models.Journal, error) {
	return s.store.ListJournals(ctx, userID)
}

// Get returns the journal with its trades.
func (s *JournalService) Get(ctx context.Context, userID, id string) (*models.Journal, error) {
	j, err := s.store.GetJournal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.enc.DecryptTrades(j.Trades); err != nil {
		return nil, err
	}
	return j, nil
}

// Create adds a journal. With TemplateID the template's description, icon, color and
// settings are the starting point and non-empty input fields override them. The user's
// first journal is always the default.
func (s *JournalService) Create(ctx context.Context, userID string, in JournalInput) (*models.Journal, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	ts := now()
	j := &models.Journal{
		ID:         id.New(),
		UserID:     userID,
		Name:       in.Name,
		IsDefault:  in.IsDefault,
		IsTemplate: in.IsTemplate,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	if in.TemplateID != "" {
		tpl, err := s.store.GetJournal(ctx, userID, in.TemplateID)
		if err != nil {
			return nil, err
		}
		if !tpl.IsTemplate {
			return nil, invalid("journal %s is not a template", in.TemplateID)
		}
		j.Description, j.Icon, j.Color, j.Settings = tpl.Description, tpl.Icon, tpl.Color, tpl.Settings
	}
	if in.Description != "" {
		j.Description = in.Description
	}
	if in.Icon != "" {
		j.Icon = in.Icon
	}
	if in.Color != "" {
		j.Color = in.Color
	}
	if in.Settings != nil {
		j.Settings = *in.Settings
	}
	j.Settings = normalizeSettings(j.Settings)
	if err := validateStruct(j.Settings); err != nil {
		return nil, err
	}

	existing, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		j.IsDefault = true
	}

	if err := s.store.CreateJournal(ctx, j); err != nil {
		return nil, err
	}
	s.logger.Info("journal created", zap.String("user_id", userID), zap.String("journal_id", j.ID))
	return j, nil
}

func (s *JournalService) Update(ctx context.Context, userID, id string, p JournalPatch) (*models.Journal, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	j, err := s.store.GetJournal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		j.Name = name
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Icon != nil {
		j.Icon = *p.Icon
	}
	if p.Color != nil {
		j.Color = *p.Color
	}
	if p.Settings != nil {
		j.Settings = normalizeSettings(*p.Settings)
		if err := validateStruct(j.Settings); err != nil {
			return nil, err
		}
	}
	if p.IsDefault != nil {
		j.IsDefault = *p.IsDefault
	}
	if p.IsTemplate != nil {
		j.IsTemplate = *p.IsTemplate
	}
	j.UpdatedAt = now()

	if err := s.store.UpdateJournal(ctx, j); err != nil {
		return nil, err
	}
	if err := s.enc.DecryptTrades(j.Trades); err != nil {
		return nil, err
	}
	return j, nil
}

// Delete removes a journal and its trades. The default journal can only go once it is
// the user's last one.
func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	j, err := s.store.GetJournal(ctx, userID, id)
	if err != nil {
		return err
	}
	if j.IsDefault {
		all, err := s.store.ListJournals(ctx, userID)
		if err != nil {
			return err
		}
		if len(all) > 1 {
			return invalid("the default journal cannot be deleted while other journals exist")
		}
	}
	if err := s.store.DeleteJournal(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("journal deleted",
		zap.String("user_id", userID),
		zap.String("journal_id", id),
		zap.Int("trades", len(j.Trades)))
	return nil
}

// defaultJournal returns the user's default journal, falling back to the first one.
func (s *JournalService) defaultJournal(ctx context.Context, userID string) (*models.Journal, error) {
	all, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, invalid("create a journal before adding trades")
	}
	return &all[0], nil
}

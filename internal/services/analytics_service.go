package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/stats"
	"tradejournal/internal/store"
)

const recentTradeCount = 5

type DashboardQuery struct {
	JournalID string
	From      *time.Time
	To        *time.Time
}

type Dashboard struct {
	JournalID    string                `json:"journalId,omitempty"`
	Currency     string                `json:"currency"`
	Summary      stats.Summary         `json:"summary"`
	Playbooks    []stats.PlaybookStats `json:"playbooks"`
	RecentTrades []models.Trade        `json:"recentTrades"`
}

type AnalyticsService struct {
	store  store.Store
	enc    *EncryptionService
	logger *zap.Logger
}

func NewAnalyticsService(st store.Store, enc *EncryptionService, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{store: st, enc: enc, logger: logger}
}

// scope resolves the capital and currency of one journal, or of all the user's journals
// when journalID is empty.
func (s *AnalyticsService) scope(ctx context.Context, userID, journalID string) (capital float64, currency string, err error) {
	if journalID != "" {
		j, err := s.store.GetJournal(ctx, userID, journalID)
		if err != nil {
			return 0, "", err
		}
		return j.Settings.InitialCapital, normalizeSettings(j.Settings).Currency, nil
	}
	journals, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return 0, "", err
	}
	currency = models.DefaultCurrency
	if len(journals) > 0 {
		currency = normalizeSettings(journals[0].Settings).Currency
	}
	for _, j := range journals {
		capital += j.Settings.InitialCapital
	}
	return capital, currency, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, q DashboardQuery) (*Dashboard, error) {
	capital, currency, err := s.scope(ctx, userID, q.JournalID)
	if err != nil {
		return nil, err
	}
	trades, err := s.store.ListTrades(ctx, userID, store.TradeFilter{JournalID: q.JournalID, From: q.From, To: q.To})
	if err != nil {
		return nil, err
	}

	recent := make([]models.Trade, 0, recentTradeCount)
	for i := 0; i < len(trades) && i < recentTradeCount; i++ {
		recent = append(recent, trades[i].Clone())
	}
	if err := s.enc.DecryptTrades(recent); err != nil {
		return nil, err
	}

	return &Dashboard{
		JournalID:    q.JournalID,
		Currency:     currency,
		Summary:      stats.Summarize(trades, capital),
		Playbooks:    stats.ByPlaybook(trades),
		RecentTrades: recent,
	}, nil
}

// Calendar returns daily P/L for month ("YYYY-MM"); an empty month means the current one.
func (s *AnalyticsService) Calendar(ctx context.Context, userID, journalID, month string) (*stats.Calendar, error) {
	start := now()
	if month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, invalid("month must be YYYY-MM")
		}
		start = parsed
	}
	if journalID != "" {
		if _, err := s.store.GetJournal(ctx, userID, journalID); err != nil {
			return nil, err
		}
	}
	trades, err := s.store.ListTrades(ctx, userID, store.TradeFilter{JournalID: journalID, Status: store.StatusClosed})
	if err != nil {
		return nil, err
	}
	cal := stats.BuildCalendar(trades, start.Year(), start.Month())
	return &cal, nil
}

package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
	"tradejournal/internal/stats"
	"tradejournal/internal/store"
)

type TradeInput struct {
	JournalID   string     `json:"journalId"`
	Symbol      string     `json:"symbol" validate:"required,max=32"`
	TradeType   string     `json:"tradeType" validate:"required,oneof=buy sell"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	EntryPrice  float64    `json:"entryPrice" validate:"gt=0"`
	ExitPrice   *float64   `json:"exitPrice" validate:"omitempty,gt=0"`
	StopLoss    *float64   `json:"stopLoss" validate:"omitempty,gt=0"`
	TakeProfit  *float64   `json:"takeProfit" validate:"omitempty,gt=0"`
	Fees        float64    `json:"fees" validate:"gte=0"`
	Playbook    string     `json:"playbook" validate:"max=64"`
	Risk        string     `json:"risk" validate:"omitempty,oneof=low medium high"`
	Mood        string     `json:"mood" validate:"max=64"`
	Rating      int        `json:"rating" validate:"gte=0,lte=5"`
	Notes       string     `json:"notes"`
	Screenshots []string   `json:"screenshots"`
	Tags        []string   `json:"tags" validate:"dive,max=64"`
	EntryDate   *time.Time `json:"entryDate"`
	ExitDate    *time.Time `json:"exitDate"`
}

// TradePatch updates only the fields that are set. ClearExit reopens a closed trade.
type TradePatch struct {
	JournalID   *string    `json:"journalId"`
	Symbol      *string    `json:"symbol"`
	TradeType   *string    `json:"tradeType"`
	Quantity    *float64   `json:"quantity"`
	EntryPrice  *float64   `json:"entryPrice"`
	ExitPrice   *float64   `json:"exitPrice"`
	StopLoss    *float64   `json:"stopLoss"`
	TakeProfit  *float64   `json:"takeProfit"`
	Fees        *float64   `json:"fees"`
	Playbook    *string    `json:"playbook"`
	Risk        *string    `json:"risk"`
	Mood        *string    `json:"mood"`
	Rating      *int       `json:"rating"`
	Notes       *string    `json:"notes"`
	Screenshots []string   `json:"screenshots"`
	Tags        []string   `json:"tags"`
	EntryDate   *time.Time `json:"entryDate"`
	ExitDate    *time.Time `json:"exitDate"`
	ClearExit   bool       `json:"clearExit"`
}

type TradeService struct {
	store    store.Store
	journals *JournalService
	enc      *EncryptionService
	logger   *zap.Logger
}

func NewTradeService(st store.Store, journals *JournalService, enc *EncryptionService, logger *zap.Logger) *TradeService {
	return &TradeService{store: st, journals: journals, enc: enc, logger: logger}
}

// inputOf restates a stored trade as input so patched trades are validated by the same
// rules as new ones.
func inputOf(t models.Trade) TradeInput {
	entry := t.EntryDate
	return TradeInput{
		JournalID:   t.JournalID,
		Symbol:      t.Symbol,
		TradeType:   t.TradeType,
		Quantity:    t.Quantity,
		EntryPrice:  t.EntryPrice,
		ExitPrice:   t.ExitPrice,
		StopLoss:    t.StopLoss,
		TakeProfit:  t.TakeProfit,
		Fees:        t.Fees,
		Playbook:    t.Playbook,
		Risk:        t.Risk,
		Mood:        t.Mood,
		Rating:      t.Rating,
		Notes:       t.Notes,
		Screenshots: t.Screenshots,
		Tags:        t.Tags,
		EntryDate:   &entry,
		ExitDate:    t.ExitDate,
	}
}

// checkTrade normalizes t in place and validates it.
func checkTrade(t *models.Trade) error {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.TradeType = strings.ToLower(strings.TrimSpace(t.TradeType))
	t.Risk = strings.ToLower(strings.TrimSpace(t.Risk))
	t.EntryDate = t.EntryDate.UTC()
	if t.ExitPrice == nil {
		t.ExitDate = nil
	} else if t.ExitDate == nil {
		d := now()
		t.ExitDate = &d
	}
	if t.ExitDate != nil {
		d := t.ExitDate.UTC()
		t.ExitDate = &d
		if d.Before(t.EntryDate) {
			return invalid("exitDate must not be before entryDate")
		}
	}
	return validateStruct(inputOf(*t))
}

func (s *TradeService) Create(ctx context.Context, userID string, in TradeInput) (*models.Trade, error) {
	ts := now()
	t := &models.Trade{
		ID:          id.New(),
		JournalID:   in.JournalID,
		UserID:      userID,
		Symbol:      in.Symbol,
		TradeType:   in.TradeType,
		Quantity:    in.Quantity,
		EntryPrice:  in.EntryPrice,
		ExitPrice:   in.ExitPrice,
		StopLoss:    in.StopLoss,
		TakeProfit:  in.TakeProfit,
		Fees:        in.Fees,
		Playbook:    in.Playbook,
		Risk:        in.Risk,
		Mood:        in.Mood,
		Rating:      in.Rating,
		Notes:       in.Notes,
		Screenshots: in.Screenshots,
		Tags:        in.Tags,
		EntryDate:   ts,
		ExitDate:    in.ExitDate,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if in.EntryDate != nil {
		t.EntryDate = *in.EntryDate
	}
	if err := checkTrade(t); err != nil {
		return nil, err
	}
	if t.JournalID == "" {
		j, err := s.journals.defaultJournal(ctx, userID)
		if err != nil {
			return nil, err
		}
		t.JournalID = j.ID
	}

	if err := s.save(ctx, t, s.store.CreateTrade); err != nil {
		return nil, err
	}
	s.logger.Info("trade created",
		zap.String("user_id", userID),
		zap.String("trade_id", t.ID),
		zap.String("journal_id", t.JournalID))
	return t, nil
}

// save seals t for storage and hands it to persist; t itself keeps plaintext notes.
func (s *TradeService) save(ctx context.Context, t *models.Trade, persist func(context.Context, *models.Trade) error) error {
	stored := t.Clone()
	if err := s.enc.EncryptTrade(&stored); err != nil {
		return err
	}
	return persist(ctx, &stored)
}

func (s *TradeService) Get(ctx context.Context, userID, id string) (*models.Trade, error) {
	t, err := s.store.GetTrade(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.enc.DecryptTrade(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TradeService) List(ctx context.Context, userID string, f store.TradeFilter) ([]models.Trade, error) {
	trades, err := s.store.ListTrades(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if err := s.enc.DecryptTrades(trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (s *TradeService) Update(ctx context.Context, userID, id string, p TradePatch) (*models.Trade, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	applyTradePatch(t, p)
	if err := checkTrade(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = now()
	if err := s.save(ctx, t, s.store.UpdateTrade); err != nil {
		return nil, err
	}
	return t, nil
}

func applyTradePatch(t *models.Trade, p TradePatch) {
	setString(&t.JournalID, p.JournalID)
	setString(&t.Symbol, p.Symbol)
	setString(&t.TradeType, p.TradeType)
	setFloat(&t.Quantity, p.Quantity)
	setFloat(&t.EntryPrice, p.EntryPrice)
	setFloat(&t.Fees, p.Fees)
	setString(&t.Playbook, p.Playbook)
	setString(&t.Risk, p.Risk)
	setString(&t.Mood, p.Mood)
	setString(&t.Notes, p.Notes)
	if p.StopLoss != nil {
		t.StopLoss = p.StopLoss
	}
	if p.TakeProfit != nil {
		t.TakeProfit = p.TakeProfit
	}
	if p.Rating != nil {
		t.Rating = *p.Rating
	}
	if p.Screenshots != nil {
		t.Screenshots = p.Screenshots
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	if p.EntryDate != nil {
		t.EntryDate = *p.EntryDate
	}
	if p.ExitPrice != nil {
		t.ExitPrice = p.ExitPrice
	}
	if p.ExitDate != nil {
		t.ExitDate = p.ExitDate
	}
	if p.ClearExit {
		t.ExitPrice = nil
		t.ExitDate = nil
	}
}

func (s *TradeService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTrade(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("trade deleted", zap.String("user_id", userID), zap.String("trade_id", id))
	return nil
}

var csvHeader = []string{
	"id", "journal", "symbol", "type", "quantity", "entry_price", "exit_price", "fees",
	"entry_date", "exit_date", "status", "net_pl", "net_pl_display", "playbook", "tags", "notes",
}

// ExportCSV writes the user's trades, optionally limited to one journal, as CSV.
func (s *TradeService) ExportCSV(ctx context.Context, userID, journalID string, w io.Writer) error {
	journals, err := s.store.ListJournals(ctx, userID)
	if err != nil {
		return err
	}
	byID := make(map[string]models.Journal, len(journals))
	for _, j := range journals {
		byID[j.ID] = j
	}
	if journalID != "" {
		if _, ok := byID[journalID]; !ok {
			// surfaces ErrNotFound for someone else's journal
			if _, err := s.store.GetJournal(ctx, userID, journalID); err != nil {
				return err
			}
		}
	}
	trades, err := s.List(ctx, userID, store.TradeFilter{JournalID: journalID})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		j := byID[t.JournalID]
		status, exitPrice, exitDate, pl, plDisplay := store.StatusOpen, "", "", "", ""
		if t.IsClosed() {
			net := stats.NetPL(t)
			status = store.StatusClosed
			exitPrice = formatFloat(*t.ExitPrice)
			pl = formatFloat(net)
			plDisplay = stats.FormatMoney(net, j.Settings.Currency)
		}
		if t.ExitDate != nil {
			exitDate = t.ExitDate.UTC().Format(time.RFC3339)
		}
		record := []string{
			t.ID, j.Name, t.Symbol, t.TradeType, formatFloat(t.Quantity), formatFloat(t.EntryPrice),
			exitPrice, formatFloat(t.Fees), t.EntryDate.UTC().Format(time.RFC3339), exitDate, status,
			pl, plDisplay, t.Playbook, strings.Join(t.Tags, ";"), t.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Package legacy reshapes the old flat journals document into the per-user keyed layout.
//
// The flat layout was a JSON array of journals shared by every account. The keyed layout is
// an object mapping user id to that user's journals.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/id"
	"tradejournal/internal/models"
)

// ErrNoOwner is returned when a flat document needs migrating but no owner was given.
var ErrNoOwner = errors.New("legacy: owner required to migrate flat journals")

type Result struct {
	Owner    string `json:"owner" yaml:"owner"`
	Journals int    `json:"journals" yaml:"journals"`
	Trades   int    `json:"trades" yaml:"trades"`
	Migrated bool   `json:"migrated" yaml:"migrated"`
}

func (r Result) String() string {
	if !r.Migrated {
		return "nothing to do: journals are already keyed by user"
	}
	return fmt.Sprintf("migrated %d journals and %d trades to user %s", r.Journals, r.Trades, r.Owner)
}

// IsLegacy reports whether raw holds the flat array layout.
func IsLegacy(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Migrate converts raw into the keyed layout. Keyed input is decoded and returned untouched
// with Migrated false, so running it twice is harmless.
func Migrate(raw []byte, ownerID string, now time.Time) (map[string][]models.Journal, Result, error) {
	out := map[string][]models.Journal{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out, Result{}, nil
	}

	if !IsLegacy(trimmed) {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, Result{}, fmt.Errorf("decode keyed journals: %w", err)
		}
		return out, Result{}, nil
	}

	if ownerID == "" {
		return nil, Result{}, ErrNoOwner
	}

	var flat []models.Journal
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return nil, Result{}, fmt.Errorf("decode flat journals: %w", err)
	}

	res := Result{Owner: ownerID, Migrated: true}
	now = now.UTC()
	seen := map[string]bool{}
	for i := range flat {
		j := &flat[i]
		if j.ID == "" || seen[j.ID] {
			j.ID = id.New()
		}
		seen[j.ID] = true
		j.UserID = ownerID
		if j.CreatedAt.IsZero() {
			j.CreatedAt = now
		}
		if j.UpdatedAt.IsZero() {
			j.UpdatedAt = j.CreatedAt
		}
		if strings.TrimSpace(j.Name) == "" {
			j.Name = "Journal"
		}
		if j.Settings.Currency == "" {
			j.Settings.Currency = models.DefaultCurrency
		}
		for k := range j.Trades {
			fixTrade(&j.Trades[k], j, seen, now)
		}
		res.Trades += len(j.Trades)
	}
	markDefault(flat)

	res.Journals = len(flat)
	out[ownerID] = flat
	return out, res, nil
}

func fixTrade(t *models.Trade, j *models.Journal, seen map[string]bool, now time.Time) {
	if t.ID == "" || seen[t.ID] {
		t.ID = id.New()
	}
	seen[t.ID] = true
	t.JournalID = j.ID
	t.UserID = j.UserID
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.TradeType = strings.ToLower(t.TradeType)
	if t.TradeType != models.TradeSell {
		t.TradeType = models.TradeBuy
	}
	if t.EntryDate.IsZero() {
		t.EntryDate = j.CreatedAt
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// markDefault keeps the first journal flagged default and clears the rest. When none is
// flagged the first journal becomes the default.
func markDefault(journals []models.Journal) {
	if len(journals) == 0 {
		return
	}
	found := false
	for i := range journals {
		if journals[i].IsDefault && !found {
			found = true
			continue
		}
		journals[i].IsDefault = false
	}
	if !found {
		journals[0].IsDefault = true
	}
}

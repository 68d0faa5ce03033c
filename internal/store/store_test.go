package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradejournal/internal/models"
)

func TestTradeFilterMatch(t *testing.T) {
	exit := 12.0
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	before, after := day.Add(-time.Hour), day.Add(time.Hour)
	closed := models.Trade{JournalID: "j1", Symbol: "AAPL", Playbook: "pb", ExitPrice: &exit, EntryDate: day}
	open := models.Trade{JournalID: "j2", Symbol: "MSFT", EntryDate: day}

	cases := map[string]struct {
		filter TradeFilter
		trade  models.Trade
		want   bool
	}{
		"empty":            {TradeFilter{}, open, true},
		"journal":          {TradeFilter{JournalID: "j1"}, open, false},
		"symbol any case":  {TradeFilter{Symbol: "aapl"}, closed, true},
		"playbook":         {TradeFilter{Playbook: "pb"}, open, false},
		"status open":      {TradeFilter{Status: StatusOpen}, closed, false},
		"status closed":    {TradeFilter{Status: StatusClosed}, closed, true},
		"from inclusive":   {TradeFilter{From: &day}, open, true},
		"to inclusive":     {TradeFilter{To: &day}, open, true},
		"before range":     {TradeFilter{From: &after}, open, false},
		"after range":      {TradeFilter{To: &before}, open, false},
		"all criteria met": {TradeFilter{JournalID: "j1", Symbol: "AAPL", Playbook: "pb", Status: StatusClosed, From: &before, To: &after}, closed, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Match(tc.trade))
		})
	}
}

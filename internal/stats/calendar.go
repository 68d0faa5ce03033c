package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

const dayLayout = "2006-01-02"

type CalendarDay struct {
	Date   string  `json:"date"`
	PL     float64 `json:"pl"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
}

type Calendar struct {
	Month       string        `json:"month"`
	Days        []CalendarDay `json:"days"`
	NetPL       float64       `json:"netPL"`
	Trades      int           `json:"trades"`
	WinningDays int           `json:"winningDays"`
	LosingDays  int           `json:"losingDays"`
}

// BuildCalendar buckets closed trades by UTC close day for one month. Only days with
// at least one closed trade are listed, in date order.
func BuildCalendar(trades []models.Trade, year int, month time.Month) Calendar {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	type bucket struct {
		pl                   decimal.Decimal
		trades, wins, losses int
	}
	buckets := map[string]*bucket{}
	total := decimal.Zero
	cal := Calendar{Month: start.Format("2006-01"), Days: []CalendarDay{}}

	for _, c := range closedInOrder(trades) {
		at := c.trade.ClosedAt().UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		key := at.Format(dayLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.pl = b.pl.Add(c.pl)
		b.trades++
		switch c.pl.Sign() {
		case 1:
			b.wins++
		case -1:
			b.losses++
		}
		total = total.Add(c.pl)
		cal.Trades++
	}

	for key, b := range buckets {
		cal.Days = append(cal.Days, CalendarDay{
			Date:   key,
			PL:     b.pl.InexactFloat64(),
			Trades: b.trades,
			Wins:   b.wins,
			Losses: b.losses,
		})
		switch b.pl.Sign() {
		case 1:
			cal.WinningDays++
		case -1:
			cal.LosingDays++
		}
	}
	sort.Slice(cal.Days, func(i, j int) bool { return cal.Days[i].Date < cal.Days[j].Date })
	cal.NetPL = total.InexactFloat64()
	return cal
}

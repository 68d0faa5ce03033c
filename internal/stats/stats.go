// Package stats computes trading statistics over journal trades.
//
// All arithmetic runs on decimal.Decimal so that sums of many prices do not drift; the
// exported report types carry float64 for JSON consumers.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PnL returns the net profit or loss of a closed trade: (exit - entry) * quantity,
// negated for short (sell) trades, minus fees. ok is false for open trades.
func PnL(t models.Trade) (pl decimal.Decimal, ok bool) {
	if t.ExitPrice == nil {
		return decimal.Zero, false
	}
	entry := decimal.NewFromFloat(t.EntryPrice)
	exit := decimal.NewFromFloat(*t.ExitPrice)
	gross := exit.Sub(entry).Mul(decimal.NewFromFloat(t.Quantity))
	if t.TradeType == models.TradeSell {
		gross = gross.Neg()
	}
	return gross.Sub(decimal.NewFromFloat(t.Fees)), true
}

// NetPL is PnL as a float, zero for open trades.
func NetPL(t models.Trade) float64 {
	pl, _ := PnL(t)
	return pl.InexactFloat64()
}

type EquityPoint struct {
	Date    time.Time `json:"date"`
	TradeID string    `json:"tradeId"`
	PL      float64   `json:"pl"`
	Equity  float64   `json:"equity"`
}

// Summary is the dashboard aggregate. Loss figures are positive magnitudes.
type Summary struct {
	TotalTrades    int           `json:"totalTrades"`
	OpenTrades     int           `json:"openTrades"`
	ClosedTrades   int           `json:"closedTrades"`
	Wins           int           `json:"wins"`
	Losses         int           `json:"losses"`
	BreakEven      int           `json:"breakEven"`
	WinRate        float64       `json:"winRate"`
	NetPL          float64       `json:"netPL"`
	GrossProfit    float64       `json:"grossProfit"`
	GrossLoss      float64       `json:"grossLoss"`
	ProfitFactor   *float64      `json:"profitFactor"`
	AverageWin     float64       `json:"averageWin"`
	AverageLoss    float64       `json:"averageLoss"`
	LargestWin     float64       `json:"largestWin"`
	LargestLoss    float64       `json:"largestLoss"`
	Expectancy     float64       `json:"expectancy"`
	TotalFees      float64       `json:"totalFees"`
	CurrentStreak  int           `json:"currentStreak"`
	MaxWinStreak   int           `json:"maxWinStreak"`
	MaxLossStreak  int           `json:"maxLossStreak"`
	InitialCapital float64       `json:"initialCapital"`
	MaxDrawdown    float64       `json:"maxDrawdown"`
	MaxDrawdownPct float64       `json:"maxDrawdownPct"`
	ReturnPct      float64       `json:"returnPct"`
	EquityCurve    []EquityPoint `json:"equityCurve"`
}

type closedTrade struct {
	trade models.Trade
	pl    decimal.Decimal
}

// closedInOrder returns the closed trades sorted by close time, then id.
func closedInOrder(trades []models.Trade) []closedTrade {
	var out []closedTrade
	for _, t := range trades {
		if pl, ok := PnL(t); ok {
			out = append(out, closedTrade{trade: t, pl: pl})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].trade.ClosedAt(), out[j].trade.ClosedAt()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].trade.ID < out[j].trade.ID
	})
	return out
}

// Summarize aggregates trades. initialCapital seeds the equity curve.
func Summarize(trades []models.Trade, initialCapital float64) Summary {
	s := Summary{
		TotalTrades:    len(trades),
		InitialCapital: initialCapital,
		EquityCurve:    []EquityPoint{},
	}

	closed := closedInOrder(trades)
	s.ClosedTrades = len(closed)
	s.OpenTrades = s.TotalTrades - s.ClosedTrades

	fees := decimal.Zero
	for _, t := range trades {
		fees = fees.Add(decimal.NewFromFloat(t.Fees))
	}
	s.TotalFees = fees.InexactFloat64()

	capital := decimal.NewFromFloat(initialCapital)
	var (
		net, grossProfit, grossLoss = decimal.Zero, decimal.Zero, decimal.Zero
		largestWin, largestLoss     = decimal.Zero, decimal.Zero
		equity, peak                = capital, capital
		maxDD, maxDDPct             = decimal.Zero, decimal.Zero
		winRun, lossRun             int
	)

	for _, c := range closed {
		pl := c.pl
		net = net.Add(pl)

		switch pl.Sign() {
		case 1:
			s.Wins++
			grossProfit = grossProfit.Add(pl)
			if pl.GreaterThan(largestWin) {
				largestWin = pl
			}
			winRun++
			lossRun = 0
			s.CurrentStreak = winRun
		case -1:
			s.Losses++
			loss := pl.Abs()
			grossLoss = grossLoss.Add(loss)
			if loss.GreaterThan(largestLoss) {
				largestLoss = loss
			}
			lossRun++
			winRun = 0
			s.CurrentStreak = -lossRun
		default:
			s.BreakEven++
			winRun, lossRun = 0, 0
			s.CurrentStreak = 0
		}
		s.MaxWinStreak = max(s.MaxWinStreak, winRun)
		s.MaxLossStreak = max(s.MaxLossStreak, lossRun)

		equity = equity.Add(pl)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		dd := peak.Sub(equity)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
		if peak.IsPositive() {
			if pct := dd.Div(peak).Mul(hundred); pct.GreaterThan(maxDDPct) {
				maxDDPct = pct
			}
		}

		s.EquityCurve = append(s.EquityCurve, EquityPoint{
			Date:    c.trade.ClosedAt(),
			TradeID: c.trade.ID,
			PL:      pl.InexactFloat64(),
			Equity:  equity.InexactFloat64(),
		})
	}

	s.NetPL = net.InexactFloat64()
	s.GrossProfit = grossProfit.InexactFloat64()
	s.GrossLoss = grossLoss.InexactFloat64()
	s.LargestWin = largestWin.InexactFloat64()
	s.LargestLoss = largestLoss.InexactFloat64()
	s.MaxDrawdown = maxDD.InexactFloat64()
	s.MaxDrawdownPct = maxDDPct.InexactFloat64()
	s.ProfitFactor = profitFactor(grossProfit, grossLoss)

	if s.ClosedTrades > 0 {
		n := decimal.NewFromInt(int64(s.ClosedTrades))
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(n).Mul(hundred).InexactFloat64()
		s.Expectancy = net.Div(n).InexactFloat64()
	}
	if s.Wins > 0 {
		s.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(s.Wins))).InexactFloat64()
	}
	if s.Losses > 0 {
		s.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(s.Losses))).InexactFloat64()
	}
	if capital.IsPositive() {
		s.ReturnPct = net.Div(capital).Mul(hundred).InexactFloat64()
	}
	return s
}

// profitFactor is undefined (nil) when nothing was lost.
func profitFactor(grossProfit, grossLoss decimal.Decimal) *float64 {
	if !grossLoss.IsPositive() {
		return nil
	}
	pf := grossProfit.Div(grossLoss).InexactFloat64()
	return &pf
}

package stats

import (
	"sort"

	"tradejournal/internal/models"
)

type PlaybookStats struct {
	PlaybookID   string   `json:"playbookId"`
	Trades       int      `json:"trades"`
	ClosedTrades int      `json:"closedTrades"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	WinRate      float64  `json:"winRate"`
	ProfitFactor *float64 `json:"profitFactor"`
	NetPL        float64  `json:"netPL"`
	AverageWin   float64  `json:"averageWin"`
	AverageLoss  float64  `json:"averageLoss"`
}

// ForPlaybook computes stats over the trades tagged with playbookID.
func ForPlaybook(trades []models.Trade, playbookID string) PlaybookStats {
	var subset []models.Trade
	for _, t := range trades {
		if t.Playbook == playbookID {
			subset = append(subset, t)
		}
	}
	return fromSummary(playbookID, Summarize(subset, 0))
}

// ByPlaybook groups trades by playbook id. Trades without a playbook are skipped.
func ByPlaybook(trades []models.Trade) []PlaybookStats {
	groups := map[string][]models.Trade{}
	for _, t := range trades {
		if t.Playbook == "" {
			continue
		}
		groups[t.Playbook] = append(groups[t.Playbook], t)
	}
	out := make([]PlaybookStats, 0, len(groups))
	for pid, ts := range groups {
		out = append(out, fromSummary(pid, Summarize(ts, 0)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlaybookID < out[j].PlaybookID })
	return out
}

func fromSummary(playbookID string, s Summary) PlaybookStats {
	return PlaybookStats{
		PlaybookID:   playbookID,
		Trades:       s.TotalTrades,
		ClosedTrades: s.ClosedTrades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		WinRate:      s.WinRate,
		ProfitFactor: s.ProfitFactor,
		NetPL:        s.NetPL,
		AverageWin:   s.AverageWin,
		AverageLoss:  s.AverageLoss,
	}
}

package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type TradeHandler struct {
	trades *services.TradeService
	logger *zap.Logger
}

func NewTradeHandler(trades *services.TradeService, logger *zap.Logger) *TradeHandler {
	return &TradeHandler{trades: trades, logger: logger}
}

// List godoc
// @Summary List trades
// @Description Newest entry first. from/to bound the entry date inclusively.
// @Tags trades
// @Produce json
// @Security BearerAuth
// @Param journalId query string false "Journal id"
// @Param symbol query string false "Symbol, case-insensitive"
// @Param playbook query string false "Playbook id"
// @Param status query string false "open or closed"
// @Param from query string false "YYYY-MM-DD or RFC 3339"
// @Param to query string false "YYYY-MM-DD or RFC 3339"
// @Success 200 {array} models.Trade
// @Failure 400 {object} map[string]string
// @Router /trades [get]
func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := tradeFilter(r.URL.Query())
	if err != nil {
		fail(w, r, h.logger, "list trades", err)
		return
	}
	out, err := h.trades.List(r.Context(), currentUser(r).ID, f)
	if err != nil {
		fail(w, r, h.logger, "list trades", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create records a trade. Without journalId it lands in the default journal.
func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.TradeInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.trades.Create(r.Context(), currentUser(r).ID, in)
	if err != nil {
		fail(w, r, h.logger, "create trade", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.trades.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "get trade", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.TradePatch
	if !decode(w, r, &p) {
		return
	}
	t, err := h.trades.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), p)
	if err != nil {
		fail(w, r, h.logger, "update trade", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TradeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.trades.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "delete trade", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams trades as a CSV attachment. The body is buffered so a failure can still
// produce a JSON error.
func (h *TradeHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.trades.ExportCSV(r.Context(), currentUser(r).ID, r.URL.Query().Get("journalId"), &buf); err != nil {
		fail(w, r, h.logger, "export trades", err)
		return
	}
	name := fmt.Sprintf("trades-%s.csv", time.Now().UTC().Format(dateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type DashboardHandler struct {
	analytics *services.AnalyticsService
	logger    *zap.Logger
}

func NewDashboardHandler(analytics *services.AnalyticsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{analytics: analytics, logger: logger}
}

// Get godoc
// @Summary Dashboard statistics
// @Description Summary, equity curve, per-playbook breakdown and recent trades. Without journalId all journals are combined.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param journalId query string false "Journal id"
// @Param from query string false "YYYY-MM-DD or RFC 3339"
// @Param to query string false "YYYY-MM-DD or RFC 3339"
// @Success 200 {object} services.Dashboard
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /dashboard [get]
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := dateRange(q)
	if err != nil {
		fail(w, r, h.logger, "dashboard", err)
		return
	}
	out, err := h.analytics.Dashboard(r.Context(), currentUser(r).ID, services.DashboardQuery{
		JournalID: q.Get("journalId"),
		From:      from,
		To:        to,
	})
	if err != nil {
		fail(w, r, h.logger, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Calendar returns per-day P/L for ?month=YYYY-MM (default: current month).
func (h *DashboardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.analytics.Calendar(r.Context(), currentUser(r).ID, q.Get("journalId"), q.Get("month"))
	if err != nil {
		fail(w, r, h.logger, "calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

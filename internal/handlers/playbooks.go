package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type PlaybookHandler struct {
	playbooks *services.PlaybookService
	logger    *zap.Logger
}

func NewPlaybookHandler(playbooks *services.PlaybookService, logger *zap.Logger) *PlaybookHandler {
	return &PlaybookHandler{playbooks: playbooks, logger: logger}
}

func (h *PlaybookHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.playbooks.List(r.Context(), currentUser(r).ID)
	if err != nil {
		fail(w, r, h.logger, "list playbooks", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PlaybookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.PlaybookInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.playbooks.Create(r.Context(), currentUser(r).ID, in)
	if err != nil {
		fail(w, r, h.logger, "create playbook", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PlaybookHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.playbooks.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "get playbook", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaybookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch services.PlaybookPatch
	if !decode(w, r, &patch) {
		return
	}
	p, err := h.playbooks.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, r, h.logger, "update playbook", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlaybookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.playbooks.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "delete playbook", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats godoc
// @Summary Performance of every playbook
// @Tags playbooks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.PlaybookSummary
// @Router /playbooks/stats [get]
func (h *PlaybookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.playbooks.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		fail(w, r, h.logger, "playbook stats", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PlaybookHandler) StatsFor(w http.ResponseWriter, r *http.Request) {
	out, err := h.playbooks.StatsFor(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "playbook stats", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

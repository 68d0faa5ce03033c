package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type JournalHandler struct {
	journals *services.JournalService
	logger   *zap.Logger
}

func NewJournalHandler(journals *services.JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{journals: journals, logger: logger}
}

// List godoc
// @Summary List journals
// @Description Returns the caller's journals, default first, without trades
// @Tags journals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Journal
// @Router /journals [get]
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.journals.List(r.Context(), currentUser(r).ID)
	if err != nil {
		fail(w, r, h.logger, "list journals", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create godoc
// @Summary Create a journal
// @Description With templateId the journal starts from one of the caller's template journals
// @Tags journals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param journal body services.JournalInput true "Journal"
// @Success 201 {object} models.Journal
// @Failure 400 {object} map[string]string
// @Router /journals [post]
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.JournalInput
	if !decode(w, r, &in) {
		return
	}
	j, err := h.journals.Create(r.Context(), currentUser(r).ID, in)
	if err != nil {
		fail(w, r, h.logger, "create journal", err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

// Get returns one journal with its trades.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.journals.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "get journal", err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.JournalPatch
	if !decode(w, r, &p) {
		return
	}
	j, err := h.journals.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), p)
	if err != nil {
		fail(w, r, h.logger, "update journal", err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.journals.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "delete journal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

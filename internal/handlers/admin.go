package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type AdminHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAdminHandler(users *services.UserService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, logger: logger}
}

// Overview godoc
// @Summary Get admin overview
// @Description Returns instance-wide totals (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Overview
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.users.Overview(r.Context())
	if err != nil {
		fail(w, r, h.logger, "admin overview", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "approve user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type adminFlagRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

// SetAdmin grants or revokes admin rights. Admins cannot revoke their own.
func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminFlagRequest
	if !decode(w, r, &req) {
		return
	}
	if req.IsAdmin == nil {
		writeError(w, http.StatusBadRequest, "isAdmin is required")
		return
	}
	u, err := h.users.SetAdmin(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), *req.IsAdmin)
	if err != nil {
		fail(w, r, h.logger, "set admin", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser removes a user together with their journals, trades and playbooks.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

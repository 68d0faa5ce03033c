package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Me godoc
// @Summary Current user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string
// @Router /user [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// UpdateMe changes the caller's email and/or password.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var p services.ProfileUpdate
	if !decode(w, r, &p) {
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), currentUser(r).ID, p)
	if err != nil {
		fail(w, r, h.logger, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

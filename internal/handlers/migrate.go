package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"tradejournal/internal/services"
)

type MigrateHandler struct {
	imports *services.ImportService
	logger  *zap.Logger
}

func NewMigrateHandler(imports *services.ImportService, logger *zap.Logger) *MigrateHandler {
	return &MigrateHandler{imports: imports, logger: logger}
}

// MigrateData godoc
// @Summary Import locally stored data
// @Description Upserts journals (with their trades) and playbooks kept by the client into the caller's account. Any invalid item rejects the whole batch.
// @Tags migrate
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body services.ImportPayload true "Client data"
// @Success 201 {object} services.ImportResult "Data migrated successfully"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /migrate [post]
func (h *MigrateHandler) MigrateData(w http.ResponseWriter, r *http.Request) {
	var p services.ImportPayload
	if !decode(w, r, &p) {
		return
	}
	res, err := h.imports.Import(r.Context(), currentUser(r).ID, p)
	if err != nil {
		fail(w, r, h.logger, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

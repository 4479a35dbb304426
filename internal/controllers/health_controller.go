package controllers

import (
	"net/http"

	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// HealthController checks store connectivity.
type HealthController struct {
	store repositories.Store
}

func NewHealthController(store repositories.Store) *HealthController {
	return &HealthController{store: store}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.store.Ping(r.Context()); err != nil {
		utils.Logger.WithError(err).Error("occupancy store unreachable")
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK"})
}

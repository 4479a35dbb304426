package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

type RoomController struct {
	svc      *services.OccupancyService
	validate *validator.Validate
}

func NewRoomController(svc *services.OccupancyService) *RoomController {
	return &RoomController{svc: svc, validate: validator.New()}
}

// POST /api/v1/rooms/{roomID}/tenants
func (c *RoomController) AssignTenantHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "AssignTenantHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomID, err := pathID(r, "roomID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.AssignTenantRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.AssignTenant(r.Context(), ownerID, roomID, req)
	if err != nil {
		logger.WithError(err).WithField("roomID", roomID).Warn("AssignTenant failed")
		respondServiceError(w, err)
		return
	}
	logger.WithFields(logrus.Fields{
		"roomID": roomID, "tenantID": resp.Tenant.ID, "bedID": resp.Tenant.BedID,
	}).Info("Tenant assigned")
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// PATCH /api/v1/rooms/{roomID}
func (c *RoomController) RenameRoomHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomID, err := pathID(r, "roomID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.RenameRoomRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.RenameRoom(r.Context(), ownerID, roomID, req.RoomNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// DELETE /api/v1/rooms/{roomID}
func (c *RoomController) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomID, err := pathID(r, "roomID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	if err := c.svc.DeleteRoom(r.Context(), ownerID, roomID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

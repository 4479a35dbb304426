package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type PropertyController struct {
	svc      *services.OccupancyService
	validate *validator.Validate
}

func NewPropertyController(svc *services.OccupancyService) *PropertyController {
	return &PropertyController{svc: svc, validate: validator.New()}
}

// POST /api/v1/properties
func (c *PropertyController) CreatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "CreatePropertyHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.CreatePropertyRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.CreateProperty(r.Context(), ownerID, req)
	if err != nil {
		logger.WithError(err).Warn("CreateProperty failed")
		respondServiceError(w, err)
		return
	}
	logger.WithField("propertyID", resp.ID).Info("Property created")
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/properties
func (c *PropertyController) ListPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.ListProperties(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/properties/{propertyID}
func (c *PropertyController) GetPropertyHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.GetProperty(r.Context(), ownerID, propertyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// PATCH /api/v1/properties/{propertyID}
func (c *PropertyController) UpdatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "UpdatePropertyHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.UpdatePropertyRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.UpdateProperty(r.Context(), ownerID, propertyID, req)
	if err != nil {
		logger.WithError(err).Warn("UpdateProperty failed")
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/properties/{propertyID}/rooms/materialize
func (c *PropertyController) MaterializeRoomsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.MaterializeRooms(r.Context(), ownerID, propertyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// PATCH /api/v1/properties/{propertyID}/room-types/{roomTypeID}
func (c *PropertyController) EditRoomPricingHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "EditRoomPricingHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	roomTypeID, err := pathID(r, "roomTypeID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.EditRoomPricingRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.EditRoomPricing(r.Context(), ownerID, propertyID, roomTypeID, req)
	if err != nil {
		logger.WithError(err).Warn("EditRoomPricing failed")
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/properties/{propertyID}/roster
func (c *PropertyController) RosterHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.GetRoster(r.Context(), ownerID, propertyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/properties/{propertyID}/consistency
// An inconsistent property answers 409 with the report as details.
func (c *PropertyController) ConsistencyHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	propertyID, err := pathID(r, "propertyID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	report, err := c.svc.VerifyPropertyForOwner(r.Context(), ownerID, propertyID)
	if err != nil {
		if report != nil && errors.Is(err, utils.ErrInvariantBreach) {
			utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeInvariantBreach,
				"Occupancy counters disagree with the tenant ledger", report, err)
			return
		}
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}

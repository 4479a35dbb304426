package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type TenantController struct {
	svc      *services.OccupancyService
	validate *validator.Validate
}

func NewTenantController(svc *services.OccupancyService) *TenantController {
	return &TenantController{svc: svc, validate: validator.New()}
}

// GET /api/v1/properties/{propertyID}/tenants?status=&room_id=
func (c *TenantController) ListTenantsHandler(w http.ResponseWriter, r *http.Request) {
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
	roomID, err := queryID(r, "room_id")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var status *models.TenantStatus
	switch s := models.TenantStatus(r.URL.Query().Get("status")); s {
	case "":
	case models.TenantStatusActive, models.TenantStatusNotice, models.TenantStatusMovedOut:
		status = &s
	default:
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unknown tenant status filter", nil)
		return
	}

	resp, err := c.svc.ListTenants(r.Context(), ownerID, propertyID, status, roomID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/tenants/{tenantID}
func (c *TenantController) GetTenantHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	t, err := c.svc.GetTenant(r.Context(), ownerID, tenantID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// POST /api/v1/tenants/{tenantID}/move-out
func (c *TenantController) RemoveTenantHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "RemoveTenantHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.RemoveTenantRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	resp, err := c.svc.RemoveTenant(r.Context(), ownerID, tenantID, req)
	if err != nil {
		logger.WithError(err).WithField("tenantID", tenantID).Warn("RemoveTenant failed")
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/tenants/{tenantID}/rent
func (c *TenantController) RentChangeHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.RentChangeRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	t, err := c.svc.RecordRentChange(r.Context(), ownerID, tenantID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// PATCH /api/v1/tenants/{tenantID}/contact
func (c *TenantController) UpdateContactHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.UpdateTenantContactRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	t, err := c.svc.UpdateTenantContact(r.Context(), ownerID, tenantID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, t)
}

// GET /api/v1/me/tenancy
func (c *TenantController) MyTenancyHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.GetMyTenancy(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

package controllers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type NoticeController struct {
	svc      *services.OccupancyService
	validate *validator.Validate
}

func NewNoticeController(svc *services.OccupancyService) *NoticeController {
	return &NoticeController{svc: svc, validate: validator.New()}
}

// POST /api/v1/me/notices
func (c *NoticeController) SubmitNoticeHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "SubmitNoticeHandler")

	userID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.SubmitNoticeRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	n, err := c.svc.SubmitNotice(r.Context(), userID, req)
	if err != nil {
		logger.WithError(err).WithField("userID", userID).Info("SubmitNotice refused")
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, n)
}

// GET /api/v1/me/notices
func (c *NoticeController) ListMyNoticesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp, err := c.svc.ListMyNotices(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/me/notices/{noticeID}/revoke
func (c *NoticeController) RevokeNoticeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	noticeID, err := pathID(r, "noticeID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	n, err := c.svc.RevokeNotice(r.Context(), userID, noticeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, n)
}

// GET /api/v1/properties/{propertyID}/notices?status=
func (c *NoticeController) ListNoticesHandler(w http.ResponseWriter, r *http.Request) {
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
	var status *models.NoticeStatus
	switch s := models.NoticeStatus(r.URL.Query().Get("status")); s {
	case "":
	case models.NoticeStatusPending, models.NoticeStatusApproved, models.NoticeStatusRejected, models.NoticeStatusRevoked:
		status = &s
	default:
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unknown notice status filter", nil)
		return
	}

	resp, err := c.svc.ListNotices(r.Context(), ownerID, propertyID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// POST /api/v1/notices/{noticeID}/decision
func (c *NoticeController) DecideNoticeHandler(w http.ResponseWriter, r *http.Request) {
	logger := utils.Logger.WithField("handler", "DecideNoticeHandler")

	ownerID, err := callerID(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	noticeID, err := pathID(r, "noticeID")
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	var req dtos.DecideNoticeRequest
	if !decodeAndValidate(w, r, c.validate, &req) {
		return
	}

	n, err := c.svc.DecideNotice(r.Context(), ownerID, noticeID, req)
	if err != nil {
		logger.WithError(err).WithField("noticeID", noticeID).Warn("DecideNotice failed")
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, n)
}

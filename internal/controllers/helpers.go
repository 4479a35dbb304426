package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/middleware"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// formatValidationErrors is a helper to convert validator errors into a user-friendly format.
func formatValidationErrors(errs validator.ValidationErrors) []dtos.ValidationErrorDetail {
	var details []dtos.ValidationErrorDetail
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("Field '%s' must be an E.164 phone number", err.Field())
		case "min", "gte":
			message = fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param())
		case "max", "lte":
			message = fmt.Sprintf("Field '%s' must not exceed %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("Field '%s' must be a date formatted YYYY-MM-DD", err.Field())
		case "timezone":
			message = fmt.Sprintf("Field '%s' must be an IANA time zone", err.Field())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		details = append(details, dtos.ValidationErrorDetail{
			Field:   err.Field(),
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

// decodeAndValidate writes the 400 response itself and reports false when
// the body is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", formatValidationErrors(validationErrs))
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		}
		return false
	}
	return true
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, &utils.AppError{StatusCode: http.StatusUnauthorized, Code: utils.ErrCodeUnauthorized, Message: "Missing user ID in context"}
	}
	return id, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    fmt.Sprintf("Invalid %s", name),
			Err:        err,
		}
	}
	return id, nil
}

func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeInvalidPayload,
			Message:    fmt.Sprintf("Invalid %s query parameter", name),
			Err:        err,
		}
	}
	return &id, nil
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{utils.ErrPropertyNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Property not found"},
	{utils.ErrRoomTypeNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Room type not found"},
	{utils.ErrRoomNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Room not found"},
	{utils.ErrTenantNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Tenant not found"},
	{utils.ErrNoticeNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Notice not found"},
	{utils.ErrForbidden, http.StatusForbidden, utils.ErrCodeForbidden, "You do not own this property"},
	{utils.ErrRoomFull, http.StatusConflict, utils.ErrCodeRoomFull, "Room is full"},
	{utils.ErrRoomNotEmpty, http.StatusConflict, utils.ErrCodeRoomNotEmpty, "Room still has tenants"},
	{utils.ErrDuplicateRoomNumber, http.StatusConflict, utils.ErrCodeDuplicateRoom, "Room number already in use"},
	{utils.ErrDuplicateRoomType, http.StatusConflict, utils.ErrCodeDuplicateRoomType, "Room type already exists for this category"},
	{utils.ErrNoticeAlreadyPending, http.StatusConflict, utils.ErrCodeNoticePending, "A notice is already pending"},
	{utils.ErrInvalidTransition, http.StatusConflict, utils.ErrCodeInvalidTransition, "Status change not allowed"},
	{utils.ErrRowVersionConflict, http.StatusConflict, utils.ErrCodeRowVersionConflict, "Record was modified concurrently"},
	{utils.ErrSubmissionWindowClosed, http.StatusUnprocessableEntity, utils.ErrCodeWindowClosed, "Notices can only be submitted early in the month"},
	{utils.ErrInvalidVacateDate, http.StatusBadRequest, utils.ErrCodeInvalidVacateDate, "Invalid vacate date"},
	{utils.ErrInvalidOccupancyOverride, http.StatusBadRequest, utils.ErrCodeOccupancyOverride, "Invalid occupancy override"},
	{utils.ErrInvalidRoomCount, http.StatusBadRequest, utils.ErrCodeInvalidRoomCount, "Invalid room count"},
	{utils.ErrUnknownCategory, http.StatusBadRequest, utils.ErrCodeUnknownCategory, "Unknown sharing category"},
	{utils.ErrInvariantBreach, http.StatusInternalServerError, utils.ErrCodeInvariantBreach, "Occupancy records are inconsistent"},
}

// respondServiceError maps service sentinels onto HTTP responses. Business
// rule failures carry the underlying message so clients can show it.
func respondServiceError(w http.ResponseWriter, err error) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		utils.HandleAppError(w, err)
		return
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			msg := m.message
			switch m.status {
			case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
				msg = err.Error()
			}
			utils.HandleAppError(w, &utils.AppError{StatusCode: m.status, Code: m.code, Message: msg, Err: err})
			return
		}
	}
	utils.HandleAppError(w, err)
}

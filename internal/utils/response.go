package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeTokenExpired   = "token_expired"
	ErrCodeForbidden      = "forbidden"
	ErrCodeInternal       = "internal_server_error"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"

	ErrCodeRowVersionConflict = "row_version_conflict"
	ErrCodeRoomFull           = "room_full"
	ErrCodeRoomNotEmpty       = "room_not_empty"
	ErrCodeDuplicateRoom      = "duplicate_room_number"
	ErrCodeDuplicateRoomType  = "duplicate_room_type"
	ErrCodeOccupancyOverride  = "invalid_occupancy_override"
	ErrCodeInvalidRoomCount   = "invalid_room_count"
	ErrCodeWindowClosed       = "submission_window_closed"
	ErrCodeNoticePending      = "notice_already_pending"
	ErrCodeInvalidTransition  = "invalid_transition"
	ErrCodeInvalidVacateDate  = "invalid_vacate_date"
	ErrCodeUnknownCategory    = "unknown_category"
	ErrCodeInvariantBreach    = "invariant_breach"
)

// ErrorResponse carries an optional Details payload, e.g. the list of
// validation failures or the consistency report.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	fields := logrus.Fields{"status": status, "code": errorCode}
	if len(devErrs) > 0 && devErrs[0] != nil {
		fields["error"] = devErrs[0].Error()
	}
	// 4xx are caller mistakes or policy refusals, not system errors
	if status >= http.StatusInternalServerError {
		Logger.WithFields(fields).Error(publicMessage)
	} else {
		Logger.WithFields(fields).Info(publicMessage)
	}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

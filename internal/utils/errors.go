package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	// capacity
	ErrRoomFull                 = errors.New("room_full")
	ErrInvalidOccupancyOverride = errors.New("invalid_occupancy_override")
	ErrInvalidRoomCount         = errors.New("invalid_room_count")

	// lookups
	ErrPropertyNotFound = errors.New("property_not_found")
	ErrRoomTypeNotFound = errors.New("room_type_not_found")
	ErrRoomNotFound     = errors.New("room_not_found")
	ErrTenantNotFound   = errors.New("tenant_not_found")
	ErrNoticeNotFound   = errors.New("notice_not_found")

	// uniqueness
	ErrDuplicateRoomNumber = errors.New("duplicate_room_number")
	ErrDuplicateRoomType   = errors.New("duplicate_room_type")

	// policy / lifecycle
	ErrRoomNotEmpty           = errors.New("room_not_empty")
	ErrSubmissionWindowClosed = errors.New("submission_window_closed")
	ErrNoticeAlreadyPending   = errors.New("notice_already_pending")
	ErrInvalidTransition      = errors.New("invalid_transition")
	ErrInvalidVacateDate      = errors.New("invalid_vacate_date")
	ErrUnknownCategory        = errors.New("unknown_category")

	// access
	ErrForbidden = errors.New("forbidden")

	// must never happen under correct locking
	ErrInvariantBreach = errors.New("invariant_breach")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}

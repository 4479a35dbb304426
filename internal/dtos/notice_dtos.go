package dtos

import (
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
)

const DateLayout = "2006-01-02"

type SubmitNoticeRequest struct {
	VacateDate string `json:"vacate_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"required,min=1,max=1000"`
}

type DecideNoticeRequest struct {
	Status        models.NoticeStatus `json:"status" validate:"required,oneof=approved rejected"`
	OwnerResponse *string             `json:"owner_response,omitempty" validate:"omitempty,max=1000"`
}

type ListNoticesResponse struct {
	Results []*models.Notice `json:"results"`
	Total   int              `json:"total"`
}

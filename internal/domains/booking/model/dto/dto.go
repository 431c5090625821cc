package dto

import (
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"certslot/internal/domains/booking/model"
	"certslot/shared"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	gModel "certslot/shared/model"
	"certslot/shared/timezone"
)

type CreateBookingRequest struct {
	SlotID       string                  `json:"slot_id"      validate:"required"`
	Certificates []string                `json:"certificates" validate:"required,min=1,dive,required"`
	Files        []*multipart.FileHeader `json:"files"        swaggerignore:"true" validate:"required,min=1,dive,mimetypes=image/png image/jpg image/jpeg application/pdf,maxfilesize=10"`
	FileHandles  []multipart.File        `json:"-"`
}

func (c *CreateBookingRequest) ToModel(user string, fileURLs []string, bookingCount int) model.Booking {
	return model.Booking{
		ID:           uuid.NewString(),
		SlotID:       c.SlotID,
		UserID:       user,
		Certificates: pq.StringArray(c.Certificates),
		Files:        pq.StringArray(fileURLs),
		Status:       constant.BookingStatusPending,
		BookingCount: bookingCount,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type EditBookingRequest struct {
	Certificates []string                `json:"certificates" validate:"omitempty,min=1,dive,required"`
	Files        []*multipart.FileHeader `json:"files"        swaggerignore:"true" validate:"omitempty,dive,mimetypes=image/png image/jpg image/jpeg application/pdf,maxfilesize=10"`
	FileHandles  []multipart.File        `json:"-"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type BookingResponse struct {
	ID           string   `json:"id"`
	SlotID       string   `json:"slot_id"`
	UserID       string   `json:"user_id"`
	RollNumber   string   `json:"roll_number"`
	Email        string   `json:"email"`
	SlotDate     string   `json:"slot_date"`
	SlotTime     string   `json:"slot_time"`
	Certificates []string `json:"certificates"`
	Files        []string `json:"files"`
	Status       string   `json:"status"`
	BookingCount int      `json:"booking_count"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.SlotID = mod.SlotID
	r.UserID = mod.UserID
	r.RollNumber = mod.RollNumber
	r.Email = mod.Email
	r.SlotDate = mod.SlotDate.Format(constant.SlotDateFormat)
	r.SlotTime = mod.SlotTime
	r.Certificates = mod.Certificates
	r.Files = mod.Files
	r.Status = mod.Status
	r.BookingCount = mod.BookingCount
	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, m := range models {
		r.Bookings[i].FromModel(m)
	}
}

package dto

import (
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"certslot/internal/domains/slot/model"
	"certslot/shared"
	"certslot/shared/constant"
	gDto "certslot/shared/dto"
	gModel "certslot/shared/model"
	"certslot/shared/timezone"
)

type CreateSlotRequest struct {
	Date         string   `json:"date"         validate:"required"`
	Time         string   `json:"time"         validate:"required"`
	Capacity     *int     `json:"capacity"     validate:"omitempty,gte=0"`
	Certificates []string `json:"certificates" validate:"required,min=1,dive,required"`
}

func (c *CreateSlotRequest) ToModel(user string) (model.Slot, error) {
	slotDate, err := timezone.Parse(constant.SlotDateFormat, c.Date)
	if err != nil {
		return model.Slot{}, err
	}

	// A zero or absent capacity means unlimited.
	capacity := c.Capacity
	if capacity != nil && *capacity == 0 {
		capacity = nil
	}

	return model.Slot{
		ID:           uuid.NewString(),
		SlotDate:     slotDate,
		SlotTime:     c.Time,
		Capacity:     capacity,
		Certificates: pq.StringArray(c.Certificates),
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type UpdateSlotRequest struct {
	Date         string         `json:"date"         validate:"omitempty"`
	Time         string         `db:"slot_time"      json:"time"         validate:"omitempty"`
	Capacity     *int           `json:"capacity"     validate:"omitempty,gte=0"`
	Certificates pq.StringArray `db:"certificates"   json:"certificates" validate:"omitempty,min=1,dive,required"`
	BookedBy     []string       `json:"booked_by"`
}

type SlotResponse struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	Capacity          *int     `json:"capacity"`
	Certificates      []string `json:"certificates"`
	Status            string   `json:"status"`
	BookedBy          []string `json:"booked_by"`
	RemainingCapacity *int     `json:"remaining_capacity"`
	IsBookedByUser    bool     `json:"is_booked_by_user"`
	IsExpired         bool     `json:"is_expired"`
	IsFull            bool     `json:"is_full"`
	gDto.Metadata
}

// FromModel fills the response from a slot and the user ids holding an
// approved booking for it, computing the derived fields for the caller.
func (r *SlotResponse) FromModel(mod model.Slot, bookedBy []string, userID string) {
	r.ID = mod.ID
	r.Date = mod.SlotDate.Format(constant.SlotDateFormat)
	r.Time = mod.SlotTime
	r.Capacity = mod.Capacity
	r.Certificates = mod.Certificates

	if bookedBy == nil {
		bookedBy = []string{}
	}

	r.BookedBy = bookedBy
	r.IsBookedByUser = userID != constant.Empty && slices.Contains(bookedBy, userID)

	r.IsExpired = timezone.DateOnly(mod.SlotDate).Before(timezone.StartOfDay())

	approved := len(bookedBy)

	if mod.Capacity != nil {
		remaining := max(*mod.Capacity-approved, 0)
		r.RemainingCapacity = &remaining
		r.IsFull = approved >= *mod.Capacity
	}

	switch {
	case r.IsExpired:
		r.Status = constant.SlotStatusClosed
	case r.IsFull:
		r.Status = constant.SlotStatusFull
	default:
		r.Status = constant.SlotStatusAvailable
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetSlotsResponse struct {
	Slots     []SlotResponse `json:"slots"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

// FromModels maps the slots through FromModel using the per-slot approved
// user sets.
func (r *GetSlotsResponse) FromModels(models []model.Slot, bookedBy map[string][]string, userID string, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Slots = make([]SlotResponse, len(models))
	for i, mod := range models {
		r.Slots[i].FromModel(mod, bookedBy[mod.ID], userID)
	}
}

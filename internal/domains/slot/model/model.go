package model

import (
	"time"

	"github.com/lib/pq"

	"certslot/shared/model"
)

const (
	TableName  = "slots"
	EntityName = "slot"

	FieldID           = "id"
	FieldSlotDate     = "slot_date"
	FieldSlotTime     = "slot_time"
	FieldCapacity     = "capacity"
	FieldCertificates = "certificates"
)

// Slot is a bookable pickup window. Capacity is nil for unlimited slots.
// Status and the booked-by set are derived from approved bookings, never
// stored.
type Slot struct {
	ID           string         `db:"id"`
	SlotDate     time.Time      `db:"slot_date"`
	SlotTime     string         `db:"slot_time"`
	Capacity     *int           `db:"capacity"`
	Certificates pq.StringArray `db:"certificates"`
	model.Metadata
}

package model

import (
	"time"

	"github.com/lib/pq"

	"certslot/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID           = "id"
	FieldSlotID       = "slot_id"
	FieldUserID       = "user_id"
	FieldCertificates = "certificates"
	FieldFiles        = "files"
	FieldStatus       = "status"
	FieldBookingCount = "booking_count"
)

// Booking is a user's request for a certificate pickup slot. Status moves
// pending -> approved or rejected; an approved booking can still be
// rejected to free the seat. BookingCount is a snapshot of the user's
// prior approved bookings on the same slot, taken at creation.
type Booking struct {
	ID           string         `db:"id"`
	SlotID       string         `db:"slot_id"`
	UserID       string         `db:"user_id"`
	Certificates pq.StringArray `db:"certificates"`
	Files        pq.StringArray `db:"files"`
	Status       string         `db:"status"`
	BookingCount int            `db:"booking_count"`
	RollNumber   string         `db:"roll_number" table:"users"`
	Email        string         `db:"email"       table:"users"`
	SlotDate     time.Time      `db:"slot_date"   table:"slots"`
	SlotTime     string         `db:"slot_time"   table:"slots"`
	model.Metadata
}

func (b Booking) GetJoinQuery() string {
	return "LEFT JOIN users ON users.id = bookings.user_id LEFT JOIN slots ON slots.id = bookings.slot_id"
}

package model

import (
	"time"

	"certslot/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID         = "id"
	FieldRollNumber = "roll_number"
	FieldEmail      = "email"
	FieldPassword   = "password"
	FieldLabel      = "label"
	FieldLastLogin  = "last_login"
	FieldActive     = "active"
)

type User struct {
	ID         string     `db:"id"`
	RollNumber string     `db:"roll_number"`
	Email      string     `db:"email"`
	Password   string     `db:"password"`
	Label      string     `db:"label"`
	LastLogin  *time.Time `db:"last_login"`
	Active     bool       `db:"active"`
	model.Metadata
}

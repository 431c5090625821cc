package dto

import (
	"certslot/internal/domains/user/model"
)

type UserResponse struct {
	ID         string `json:"id"`
	RollNumber string `json:"roll_number"`
	Email      string `json:"email"`
	Label      string `json:"label"`
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.RollNumber = model.RollNumber
	r.Email = model.Email
	r.Label = model.Label
}

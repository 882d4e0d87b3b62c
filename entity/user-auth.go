package entity

import (
	"StoreChat/internal/lib/validate"
	"net/http"
)

type UserAuth struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"omitempty"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=customer admin system"`
}

func (u *UserAuth) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *UserAuth) IsAdmin() bool {
	return u != nil && u.Role == AdminRole
}

func (u *UserAuth) Participant() Participant {
	return Participant{
		Identity:    u.ID,
		DisplayName: u.Name,
		Role:        u.Role,
	}
}

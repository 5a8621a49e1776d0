package models

import "github.com/google/uuid"

// Actor is the authenticated principal invoking an operation.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

func (a Actor) String() string {
	return string(a.Role) + ":" + a.UserID.String()
}

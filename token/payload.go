package token

import (
	"errors"
	"fmt"
	"time"

	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils"

	"github.com/google/uuid"
)

var ErrExpired = errors.New("token has expired")

// Payload identifies the actor a token was issued to.
type Payload struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Role      models.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiredAt time.Time   `json:"expired_at"`
}

func NewPayload(userID uuid.UUID, role models.Role, duration time.Duration) (*Payload, error) {
	if userID == uuid.Nil {
		return nil, errors.New("user id cannot be empty")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now().In(utils.DateLocation)
	payload := &Payload{
		ID:        tokenID,
		UserID:    userID,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiredAt: issuedAt.Add(duration),
	}
	return payload, nil
}

func (payload *Payload) Valid() error {
	if time.Now().In(utils.DateLocation).After(payload.ExpiredAt) {
		return ErrExpired
	}
	return nil
}

// Actor returns the principal the token stands for.
func (payload *Payload) Actor() models.Actor {
	return models.Actor{UserID: payload.UserID, Role: payload.Role}
}

func (p *Payload) String() string {
	return fmt.Sprintf("ID: %s, UserID: %s, Role: %s, IssuedAt: %s, ExpiredAt: %s", p.ID, p.UserID, p.Role, p.IssuedAt, p.ExpiredAt)
}

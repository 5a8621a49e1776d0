package token

import (
	"time"

	"homestay-registration-backend/db/models"

	"github.com/google/uuid"
)

// Maker creates and verifies actor tokens.
type Maker interface {
	CreateToken(userID uuid.UUID, role models.Role, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}

package token

import (
	"errors"
	"fmt"
	"time"

	"homestay-registration-backend/db/models"

	"github.com/google/uuid"
	"github.com/o1egl/paseto"
	"golang.org/x/crypto/chacha20poly1305"
)

// tokenFooter is authenticated with every token so keys shared with other
// services cannot mint actors here.
const tokenFooter = "homestay-registration"

// PasetoMaker issues PASETO v2 local tokens carrying an actor.
type PasetoMaker struct {
	paseto       *paseto.V2
	symmetricKey []byte
}

func NewPasetoMaker(symmetricKey string) (Maker, error) {
	if len(symmetricKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: must be exactly %d characters", chacha20poly1305.KeySize)
	}
	return &PasetoMaker{paseto: paseto.NewV2(), symmetricKey: []byte(symmetricKey)}, nil
}

func (maker *PasetoMaker) CreateToken(userID uuid.UUID, role models.Role, duration time.Duration) (string, error) {
	payload, err := NewPayload(userID, role, duration)
	if err != nil {
		return "", fmt.Errorf("failed to create token payload: %w", err)
	}

	token, err := maker.paseto.Encrypt(maker.symmetricKey, payload, tokenFooter)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return token, nil
}

// VerifyToken decrypts token and rejects it when expired, issued for
// another service, or naming a role this service no longer knows.
func (maker *PasetoMaker) VerifyToken(token string) (*Payload, error) {
	var (
		payload Payload
		footer  string
	)
	if err := maker.paseto.Decrypt(token, maker.symmetricKey, &payload, &footer); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if footer != tokenFooter {
		return nil, errors.New("invalid token: unexpected footer")
	}
	if payload.UserID == uuid.Nil || !payload.Role.Valid() {
		return nil, errors.New("invalid token: malformed actor")
	}
	if err := payload.Valid(); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &payload, nil
}

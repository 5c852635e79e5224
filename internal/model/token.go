package model

import "github.com/google/uuid"

// TokenManager signs and validates the identity token kept between runs.
type TokenManager interface {
	GenerateIDToken(accountID uuid.UUID) (string, error)
	ParseIDToken(token string) (uuid.UUID, error)
}

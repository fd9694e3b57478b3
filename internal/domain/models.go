// internal/domain/models.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DateLayout is how expense dates leave the service.
const DateLayout = "2006-01-02T15:04:05.000Z"

type Account struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Category struct {
	ID      string `json:"_id"`
	Account string `json:"account,omitempty"`
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Color   string `json:"color" validate:"required,hexcolor6"`
}

// Expense keeps the category by name on the wire. CategoryID is resolved
// at write time so a category rename can follow the expense.
type Expense struct {
	ID         string  `json:"_id"`
	Account    string  `json:"account,omitempty"`
	Name       string  `json:"name" validate:"required,notblank,max=100"`
	Amount     float64 `json:"amount" validate:"required,gt=0,cents"`
	Date       string  `json:"date" validate:"required,isodate"`
	Category   string  `json:"category" validate:"required,notblank,max=50"`
	CategoryID string  `json:"categoryId,omitempty"`
}

// Session is what login and refresh hand back to the caller.
type Session struct {
	AccountID        string    `json:"account"`
	AccessToken      string    `json:"token"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// NewID returns a fresh 24-hex-digit identifier. All backends use the same
// format so identifiers can be checked without touching the store.
func NewID() string {
	return bson.NewObjectID().Hex()
}

func ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone *string

	CreatedAt time.Time
}

type Product struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Description *string
	Price       Money
	// Stock is never negative, enforced by a check constraint and conditional updates
	Stock int

	CreatedAt time.Time
	UpdatedAt time.Time
}

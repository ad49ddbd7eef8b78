package domain

import (
	"time"
)

// Company is the multi-tenancy scoping unit. Broadcast groups and note
// access are scoped by its code.
type Company struct {
	ID        uint64    `json:"id"`
	Code      string    `json:"code" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package history

import (
	"time"
)

// Operation is one audit record: who did what to which entity, scoped to a
// company. Detail carries the affected entity as JSON.
type Operation struct {
	ID          uint64    `json:"id"`
	Type        string    `json:"type"`
	TargetType  string    `json:"target_type"`
	TargetID    uint64    `json:"target_id"`
	UserID      uint64    `json:"user_id"`
	CompanyCode string    `json:"company_code" gorm:"index"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}

package domain

import "time"

// Idempotency records the response of a completed POST so a retry carrying
// the same (user_id, route, key) is answered from storage instead of running
// the generator or simulator a second time.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_route_key,priority:1"`
	Route     string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_route_key,priority:2"`
	Key       string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_route_key,priority:3"`
	Status    int       `gorm:"not null"`
	Body      []byte
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

package models

import "time"

// IdempotencyKey maps a caller-supplied initiation key to the checkout
// request id it produced, so a retried initiation returns the original
// correlation id instead of pushing a second prompt to the payer.
type IdempotencyKey struct {
	ID                uint      `gorm:"primaryKey"`
	UserID            uint      `gorm:"not null;uniqueIndex:idx_idempotency_user_key"`
	Key               string    `gorm:"size:128;not null;uniqueIndex:idx_idempotency_user_key"`
	CheckoutRequestID string    `gorm:"size:64;not null"`
	CreatedAt         time.Time
}

package domain

import "time"

// Order represents a checkout-created purchase tracked for payment
// reconciliation. This service only ever flips the paid flag or deletes
// the row; everything else about an order is immutable from here.
type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TotalCents int64     `json:"total_cents"`
	Paid       bool      `json:"paid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

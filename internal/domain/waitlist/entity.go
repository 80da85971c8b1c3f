// internal/domain/waitlist/entity.go
package waitlist

import "time"

// Entry links a subscriber to an out-of-stock product. Both references are weak:
// deleting the product or the account does not cascade here.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	ProductID string    `json:"productId" db:"product_id"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Subscriber is an entry resolved to a deliverable address.
type Subscriber struct {
	EntryID string `json:"entryId"`
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type ToggleRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type ToggleResponse struct {
	WaitList bool   `json:"waitList"`
	Message  string `json:"message"`
}

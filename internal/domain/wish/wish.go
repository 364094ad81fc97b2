package wish

import (
	"errors"
	"time"
)

type Status string

const (
	StatusSubmitted          Status = "Submitted"
	StatusCreationInProgress Status = "CreationInProgress"
	StatusInDelivery         Status = "InDelivery"
	StatusDelivered          Status = "Delivered"
)

// ErrConflict is returned when a wish is created with an id that is already taken.
var ErrConflict = errors.New("wish id already exists")

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusCreationInProgress, StatusInDelivery, StatusDelivered:
		return true
	default:
		return false
	}
}

// Next returns the single following status. The second return is false once the
// lifecycle has reached StatusDelivered, which is terminal.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusSubmitted:
		return StatusCreationInProgress, true
	case StatusCreationInProgress:
		return StatusInDelivery, true
	case StatusInDelivery:
		return StatusDelivered, true
	default:
		return StatusDelivered, false
	}
}

func (s Status) Terminal() bool {
	return s == StatusDelivered
}

type Wish struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Status  Status `json:"status"`
	// CreatedBy is assigned by the data layer from the session binding, never
	// taken from the request.
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WithOwner is the list-view shape; Username is only populated when the caller
// asked for it.
type WithOwner struct {
	Wish
	Username *string `json:"username,omitempty"`
}

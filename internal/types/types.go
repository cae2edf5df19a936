// README: Shared value types used across modules.
package types

import "github.com/google/uuid"

type ID string

// NewID mints a random identifier for plans and other entities.
func NewID() ID {
	return ID(uuid.NewString())
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

package vaccines

import "errors"

// Vaccine describes a vaccine product offered at hospitals.
type Vaccine struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type,omitempty"`
	Price          float64 `json:"price"`
	Origin         string  `json:"origin,omitempty"`
	DosesRequired  int     `json:"dosesRequired,omitempty"`
	SideEffects    string  `json:"sideEffects,omitempty"`
	StrainsCovered string  `json:"strainsCovered,omitempty"`
	Description    string  `json:"description,omitempty"`
}

// ErrNotFound indicates the vaccine does not exist.
var ErrNotFound = errors.New("vaccine not found")

package hospitals

import "errors"

// Hospital is a vaccination site. Records are immutable once created; the
// only mutation is deletion.
type Hospital struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Type    string  `json:"type,omitempty"`
	Charges float64 `json:"charges"`
}

// ErrNotFound indicates the hospital does not exist.
var ErrNotFound = errors.New("hospital not found")

package users

import "errors"

// Roles a user account can hold. Only patients count toward population and
// demographic statistics.
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// User is an account in the system. Username is the de facto join key from
// appointments; it is unique and case-sensitive.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Name       string `json:"name,omitempty"`
	Age        *int   `json:"age,omitempty"`
	Profession string `json:"profession,omitempty"`
	Contact    string `json:"contact,omitempty"`
	Address    string `json:"address,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Disease    string `json:"disease,omitempty"`
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
)

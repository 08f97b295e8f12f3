package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleAdmin   RoleType = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

package auth

import "time"

// User is an account row used for authentication. AuthRole is the coarse
// access level ("admin" or "viewer") that gates privileged endpoints; it is
// distinct from the RBAC graph role assigned through user_roles.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	AuthRole     string
	CreatedAt    time.Time
}

package models

import "fmt"

// Role is the closed set of account kinds.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// ApprovedOnSignup reports whether a fresh account of this role may log in
// straight away. Doctors wait for an admin.
func (r Role) ApprovedOnSignup() bool {
	return r != RoleDoctor
}

// ParseRole maps request input onto a Role. Empty input means patient.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RolePatient, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

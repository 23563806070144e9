package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Actor is the caller identity, resolved once at the transport boundary.
// Students and staff users live in different stores upstream; the core only
// ever sees this.
type Actor struct {
	ID   string   `json:"id" validate:"required"`
	Role UserRole `json:"role" validate:"required,user_role"`
}

func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}

// IsStaff reports whether the actor may grade and review attempts.
func (a Actor) IsStaff() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin
}

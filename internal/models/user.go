package models

import "strings"

// Role enum
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RolePatient      Role = "patient"
	RoleUser         Role = "user"
	RoleReceptionist Role = "receptionist"
)

// ParseRole normalizes the mixed-case role strings the clinic API returns.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// IsPatient reports whether the role books appointments as a patient.
// Plain users are patients in the clinic API.
func (r Role) IsPatient() bool {
	return r == RolePatient || r == RoleUser
}

// User represents a clinic user row in the database directory.
type User struct {
	BaseModel
	FullName string `gorm:"size:200" json:"fullName"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone    string `gorm:"size:50" json:"phone,omitempty"`
	Role     Role   `gorm:"size:20;default:'user'" json:"role"`
}

// Person is a directory entry used to resolve names on the edit form.
type Person struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// ToPerson converts the row into a directory entry.
func (u User) ToPerson() Person {
	return Person{
		ID:    ID(u.ID),
		Name:  u.FullName,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

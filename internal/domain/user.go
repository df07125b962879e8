package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleNGO       Role = "ngo"
	RoleVolunteer Role = "volunteer"
)

// ParseRole rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleNGO, RoleVolunteer:
		return true
	}
	return false
}

// SelfRegistrable reports whether the public register endpoint may create this role.
func (r Role) SelfRegistrable() bool {
	switch r {
	case RoleNGO, RoleVolunteer:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

type NGOProfile struct {
	OrganizationName string
	AreasOfConcern   string
}

// VolunteerProfile document fields hold object keys in the document store.
type VolunteerProfile struct {
	HoursAvailablePerWeek   int
	CriminalBackgroundCheck *string
	Resume                  *string
}

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role

	NGO       *NGOProfile       // set only when Role == RoleNGO
	Volunteer *VolunteerProfile // set only when Role == RoleVolunteer

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize drops the profile that does not belong to the user's role.
func (u *User) Normalize() {
	switch u.Role {
	case RoleNGO:
		u.Volunteer = nil
		if u.NGO == nil {
			u.NGO = &NGOProfile{}
		}
	case RoleVolunteer:
		u.NGO = nil
		if u.Volunteer == nil {
			u.Volunteer = &VolunteerProfile{}
		}
	case RoleAdmin:
		u.NGO = nil
		u.Volunteer = nil
	}
}

// UserSummary is the admin listing projection.
type UserSummary struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Role      Role
}

type NGOListing struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	OrganizationName string
	AreasOfConcern   string
}

type VolunteerListing struct {
	ID                      int64
	FirstName               string
	LastName                string
	Email                   string
	HoursAvailablePerWeek   int
	CriminalBackgroundCheck *string
	Resume                  *string
}

// Principal is the identity proven by a session token.
type Principal struct {
	UserID int64
	Role   Role
}

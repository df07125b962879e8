package handler

import (
	"fmt"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
)

type userResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`

	OrganizationName *string `json:"organizationName,omitempty"`
	AreasOfConcern   *string `json:"areasOfConcern,omitempty"`

	HoursAvailablePerWeek   *int    `json:"hoursAvailablePerWeek,omitempty"`
	CriminalBackgroundCheck *string `json:"criminalBackgroundCheck,omitempty"`
	Resume                  *string `json:"resume,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	r := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	switch u.Role {
	case domain.RoleNGO:
		if u.NGO != nil {
			r.OrganizationName = &u.NGO.OrganizationName
			r.AreasOfConcern = &u.NGO.AreasOfConcern
		}
	case domain.RoleVolunteer:
		if u.Volunteer != nil {
			r.HoursAvailablePerWeek = &u.Volunteer.HoursAvailablePerWeek
			r.CriminalBackgroundCheck = documentURL(u.ID, domain.DocumentCriminalBackgroundCheck, u.Volunteer.CriminalBackgroundCheck)
			r.Resume = documentURL(u.ID, domain.DocumentResume, u.Volunteer.Resume)
		}
	case domain.RoleAdmin:
	}
	return r
}

// documentURL points at the download route instead of leaking the object key.
func documentURL(userID int64, kind domain.DocumentKind, key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := fmt.Sprintf("/volunteers/%d/documents/%s", userID, kind)
	return &u
}

type userSummaryResponse struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

type ngoResponse struct {
	ID               int64  `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	OrganizationName string `json:"organizationName"`
	AreasOfConcern   string `json:"areasOfConcern"`
}

type volunteerResponse struct {
	ID                      int64   `json:"id"`
	FirstName               string  `json:"firstName"`
	LastName                string  `json:"lastName"`
	Email                   string  `json:"email"`
	HoursAvailablePerWeek   int     `json:"hoursAvailablePerWeek"`
	CriminalBackgroundCheck *string `json:"criminalBackgroundCheck"`
	Resume                  *string `json:"resume"`
}

// The list mappers never return nil, so empty results encode as [].

func toUserSummaries(in []domain.UserSummary) []userSummaryResponse {
	out := make([]userSummaryResponse, 0, len(in))
	for _, u := range in {
		out = append(out, userSummaryResponse{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role})
	}
	return out
}

func toNGOs(in []domain.NGOListing) []ngoResponse {
	out := make([]ngoResponse, 0, len(in))
	for _, n := range in {
		out = append(out, ngoResponse(n))
	}
	return out
}

func toVolunteers(in []domain.VolunteerListing) []volunteerResponse {
	out := make([]volunteerResponse, 0, len(in))
	for _, v := range in {
		out = append(out, volunteerResponse{
			ID:                      v.ID,
			FirstName:               v.FirstName,
			LastName:                v.LastName,
			Email:                   v.Email,
			HoursAvailablePerWeek:   v.HoursAvailablePerWeek,
			CriminalBackgroundCheck: documentURL(v.ID, domain.DocumentCriminalBackgroundCheck, v.CriminalBackgroundCheck),
			Resume:                  documentURL(v.ID, domain.DocumentResume, v.Resume),
		})
	}
	return out
}

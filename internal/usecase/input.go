package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxHoursPerWeek = 168

var validate = validator.New()

// Upload is one document attached to a registration.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role

	OrganizationName string
	AreasOfConcern   string

	HoursAvailablePerWeek   int
	CriminalBackgroundCheck *Upload
	Resume                  *Upload
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	in.AreasOfConcern = strings.TrimSpace(in.AreasOfConcern)
}

func (in *RegisterInput) validate() error {
	switch {
	case in.FirstName == "":
		return domain.Invalid("firstName", "is required")
	case in.LastName == "":
		return domain.Invalid("lastName", "is required")
	case in.Email == "":
		return domain.Invalid("email", "is required")
	case validate.Var(in.Email, "email") != nil:
		return domain.Invalid("email", "is not a valid address")
	case in.Password == "":
		return domain.Invalid("password", "is required")
	case !in.Role.Valid():
		return domain.ErrInvalidRole
	case in.HoursAvailablePerWeek < 0 || in.HoursAvailablePerWeek > maxHoursPerWeek:
		return domain.Invalid("hoursAvailablePerWeek", fmt.Sprintf("must be between 0 and %d", maxHoursPerWeek))
	}
	return nil
}

func (in *RegisterInput) toUser(passwordHash string) *domain.User {
	u := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         in.Role,
	}
	switch in.Role {
	case domain.RoleNGO:
		u.NGO = &domain.NGOProfile{OrganizationName: in.OrganizationName, AreasOfConcern: in.AreasOfConcern}
	case domain.RoleVolunteer:
		u.Volunteer = &domain.VolunteerProfile{HoursAvailablePerWeek: in.HoursAvailablePerWeek}
	case domain.RoleAdmin:
	}
	return u
}

// uploadDocuments stores the volunteer's files and records their keys on user.
// It returns the keys written so far, also on error.
func (u *AuthUsecase) uploadDocuments(ctx context.Context, user *domain.User, in RegisterInput) ([]string, error) {
	uploads := []struct {
		kind   domain.DocumentKind
		upload *Upload
		target **string
	}{
		{domain.DocumentCriminalBackgroundCheck, in.CriminalBackgroundCheck, nil},
		{domain.DocumentResume, in.Resume, nil},
	}
	if user.Volunteer != nil {
		uploads[0].target = &user.Volunteer.CriminalBackgroundCheck
		uploads[1].target = &user.Volunteer.Resume
	}

	var keys []string
	for _, up := range uploads {
		if up.upload == nil {
			continue
		}
		if u.docs == nil {
			u.removeDocuments(ctx, keys...)
			return nil, domain.ErrDocumentsDisabled
		}
		if up.upload.Size > u.opts.MaxDocumentBytes {
			u.removeDocuments(ctx, keys...)
			return nil, domain.Invalid(string(up.kind), fmt.Sprintf("must be at most %d bytes", u.opts.MaxDocumentBytes))
		}

		key := documentKey(up.kind, up.upload.Filename)
		if err := u.docs.Put(ctx, key, up.upload.Body, up.upload.Size, up.upload.ContentType); err != nil {
			u.removeDocuments(ctx, keys...)
			return nil, fmt.Errorf("store %s: %w", up.kind, err)
		}
		keys = append(keys, key)
		if up.target != nil {
			*up.target = &key
		}
	}
	return keys, nil
}

func (u *AuthUsecase) removeDocuments(ctx context.Context, keys ...string) {
	if u.docs == nil {
		return
	}
	for _, k := range keys {
		if err := u.docs.Delete(ctx, k); err != nil {
			u.logger.WarnContext(ctx, "remove document", "key", k, "error", err)
		}
	}
}

func documentKey(kind domain.DocumentKind, filename string) string {
	return fmt.Sprintf("volunteers/%s/%s%s", kind, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}

func documentKeys(u *domain.User) []string {
	if u.Volunteer == nil {
		return nil
	}
	var keys []string
	for _, k := range []*string{u.Volunteer.CriminalBackgroundCheck, u.Volunteer.Resume} {
		if k != nil && *k != "" {
			keys = append(keys, *k)
		}
	}
	return keys
}

// profileFields turns a decoded JSON patch into typed, whitelisted fields.
func profileFields(role domain.Role, raw map[string]any) (map[domain.ProfileField]any, error) {
	if len(raw) == 0 {
		return nil, domain.Invalid("", "no fields to update")
	}

	fields := make(map[domain.ProfileField]any, len(raw))
	for k, v := range raw {
		f, err := domain.ParseProfileField(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProfileField, k)
		}
		if !f.AllowedFor(role) {
			return nil, domain.Invalid(k, "cannot be set for role "+string(role))
		}
		val, err := profileValue(f, v)
		if err != nil {
			return nil, err
		}
		fields[f] = val
	}
	return fields, nil
}

func profileValue(f domain.ProfileField, v any) (any, error) {
	switch f {
	case domain.FieldHoursAvailablePerWeek:
		n, ok := wholeNumber(v)
		if !ok || n < 0 || n > maxHoursPerWeek {
			return nil, domain.Invalid(string(f), fmt.Sprintf("must be a whole number between 0 and %d", maxHoursPerWeek))
		}
		return n, nil
	case domain.FieldFirstName, domain.FieldLastName, domain.FieldEmail:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, domain.Invalid(string(f), "must be a non-empty string")
		}
		s = strings.TrimSpace(s)
		if f == domain.FieldEmail && validate.Var(s, "email") != nil {
			return nil, domain.Invalid(string(f), "is not a valid address")
		}
		return s, nil
	case domain.FieldOrganizationName, domain.FieldAreasOfConcern:
		s, ok := v.(string)
		if !ok {
			return nil, domain.Invalid(string(f), "must be a string")
		}
		return strings.TrimSpace(s), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProfileField, string(f))
}

func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

package domain

// ProfileField is an externally named, user-editable profile attribute.
// Anything not listed here cannot be written through a profile update.
type ProfileField string

const (
	FieldFirstName             ProfileField = "firstName"
	FieldLastName              ProfileField = "lastName"
	FieldEmail                 ProfileField = "email"
	FieldOrganizationName      ProfileField = "organizationName"
	FieldAreasOfConcern        ProfileField = "areasOfConcern"
	FieldHoursAvailablePerWeek ProfileField = "hoursAvailablePerWeek"
)

func ParseProfileField(s string) (ProfileField, error) {
	f := ProfileField(s)
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail,
		FieldOrganizationName, FieldAreasOfConcern, FieldHoursAvailablePerWeek:
		return f, nil
	}
	return "", ErrUnknownProfileField
}

// AllowedFor reports whether a user with role r may set the field.
func (f ProfileField) AllowedFor(r Role) bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail:
		return true
	case FieldOrganizationName, FieldAreasOfConcern:
		return r == RoleNGO
	case FieldHoursAvailablePerWeek:
		return r == RoleVolunteer
	}
	return false
}

// DocumentKind names the two volunteer uploads.
type DocumentKind string

const (
	DocumentResume                  DocumentKind = "resume"
	DocumentCriminalBackgroundCheck DocumentKind = "criminalBackgroundCheck"
)

func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	switch k {
	case DocumentResume, DocumentCriminalBackgroundCheck:
		return k, nil
	}
	return "", Invalid("kind", "must be resume or criminalBackgroundCheck")
}

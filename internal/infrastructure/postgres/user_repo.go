package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

var _ repository.UserRepository = (*UserRepository)(nil)

const userColumns = `id, first_name, last_name, email, password_hash, role,
	organization_name, areas_of_concern,
	hours_available_per_week, criminal_background_check, resume,
	created_at, updated_at`

// profileColumns is the only path from a profile field to a column.
var profileColumns = map[domain.ProfileField]string{
	domain.FieldFirstName:             "first_name",
	domain.FieldLastName:              "last_name",
	domain.FieldEmail:                 "email",
	domain.FieldOrganizationName:      "organization_name",
	domain.FieldAreasOfConcern:        "areas_of_concern",
	domain.FieldHoursAvailablePerWeek: "hours_available_per_week",
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if !u.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	u.Normalize()

	var (
		orgName, areas *string
		hours          *int
		cbc, resume    *string
	)
	switch u.Role {
	case domain.RoleNGO:
		orgName = &u.NGO.OrganizationName
		areas = &u.NGO.AreasOfConcern
	case domain.RoleVolunteer:
		hours = &u.Volunteer.HoursAvailablePerWeek
		cbc = u.Volunteer.CriminalBackgroundCheck
		resume = u.Volunteer.Resume
	case domain.RoleAdmin:
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO users (
			first_name, last_name, email, password_hash, role,
			organization_name, areas_of_concern,
			hours_available_per_week, criminal_background_check, resume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+userColumns,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role),
		orgName, areas, hours, cbc, resume,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, oops.Code("USER_EMAIL_TAKEN").Wrap(domain.ErrEmailTaken)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]domain.UserSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT id, first_name, last_name, email, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserSummary, 0)
	for rows.Next() {
		var u domain.UserSummary
		var role string
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &role); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) ListNGOs(ctx context.Context) ([]domain.NGOListing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, email,
		       COALESCE(organization_name, ''), COALESCE(areas_of_concern, '')
		FROM users
		WHERE role = 'ngo'
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ngos: %w", err)
	}
	defer rows.Close()

	ngos := make([]domain.NGOListing, 0)
	for rows.Next() {
		var n domain.NGOListing
		if err := rows.Scan(&n.ID, &n.FirstName, &n.LastName, &n.Email, &n.OrganizationName, &n.AreasOfConcern); err != nil {
			return nil, fmt.Errorf("scan ngo: %w", err)
		}
		ngos = append(ngos, n)
	}
	return ngos, rows.Err()
}

func (r *UserRepository) ListVolunteers(ctx context.Context) ([]domain.VolunteerListing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, email,
		       COALESCE(hours_available_per_week, 0), criminal_background_check, resume
		FROM users
		WHERE role = 'volunteer'
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := make([]domain.VolunteerListing, 0)
	for rows.Next() {
		var v domain.VolunteerListing
		if err := rows.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Email,
			&v.HoursAvailablePerWeek, &v.CriminalBackgroundCheck, &v.Resume); err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}
	return volunteers, rows.Err()
}

// UpdateRole also nulls out profile columns that do not belong to the new role.
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			role = $2,
			organization_name         = CASE WHEN $2 = 'ngo' THEN organization_name END,
			areas_of_concern          = CASE WHEN $2 = 'ngo' THEN areas_of_concern END,
			hours_available_per_week  = CASE WHEN $2 = 'volunteer' THEN hours_available_per_week END,
			criminal_background_check = CASE WHEN $2 = 'volunteer' THEN criminal_background_check END,
			resume                    = CASE WHEN $2 = 'volunteer' THEN resume END,
			updated_at = NOW()
		WHERE id = $1`,
		id, string(role),
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fields map[domain.ProfileField]any) error {
	if len(fields) == 0 {
		return domain.Invalid("profile", "no fields to update")
	}

	args := []any{id}
	sets := make([]string, 0, len(fields)+1)
	for _, f := range slices.Sorted(maps.Keys(fields)) {
		col, ok := profileColumns[f]
		if !ok {
			return oops.Code("USER_PROFILE_FIELD").With("field", string(f)).Wrap(domain.ErrUnknownProfileField)
		}
		args = append(args, fields[f])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	tag, err := r.db.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return oops.Code("USER_EMAIL_TAKEN").Wrap(domain.ErrEmailTaken)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SaveResetToken replaces any previous token, so older links stop working.
func (r *UserRepository) SaveResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE email = $1`,
		email, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE reset_token = $1 AND reset_token_expires_at > NOW()`,
		tokenHash,
	)
	u, err := scanUser(row)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrResetTokenInvalid
	}
	return u, err
}

func (r *UserRepository) ClearResetToken(ctx context.Context, tokenHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token = $1`,
		tokenHash,
	)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token = $1 AND reset_token_expires_at > NOW()
		RETURNING id`,
		tokenHash, passwordHash,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrResetTokenInvalid
		}
		return 0, fmt.Errorf("consume reset token: %w", err)
	}
	return id, nil
}

func (r *UserRepository) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token IS NOT NULL AND reset_token_expires_at <= $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u              domain.User
		role           string
		orgName, areas *string
		hours          *int
		cbc, resume    *string
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &role,
		&orgName, &areas,
		&hours, &cbc, &resume,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	switch u.Role {
	case domain.RoleNGO:
		u.NGO = &domain.NGOProfile{OrganizationName: deref(orgName), AreasOfConcern: deref(areas)}
	case domain.RoleVolunteer:
		v := &domain.VolunteerProfile{CriminalBackgroundCheck: cbc, Resume: resume}
		if hours != nil {
			v.HoursAvailablePerWeek = *hours
		}
		u.Volunteer = v
	case domain.RoleAdmin:
	}
	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

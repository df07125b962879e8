package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "first_name", "last_name", "email", "password_hash", "role",
	"organization_name", "areas_of_concern",
	"hours_available_per_week", "criminal_background_check", "resume",
	"created_at", "updated_at",
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func ngoRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(userRowColumns).AddRow(
		int64(1), "Ada", "Lovelace", "a@acme.org", "$2a$10$hash", "ngo",
		strPtr("Acme"), strPtr("phishing"),
		(*int)(nil), (*string)(nil), (*string)(nil),
		now, now,
	)
}

func TestCreate_NGO_WritesOnlyNGOColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada", "Lovelace", "a@acme.org", "$2a$10$hash", "ngo",
			strPtr("Acme"), strPtr("phishing"), (*int)(nil), (*string)(nil), (*string)(nil)).
		WillReturnRows(ngoRow(now))

	u, err := repo.Create(context.Background(), &domain.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "a@acme.org",
		PasswordHash: "$2a$10$hash",
		Role:         domain.RoleNGO,
		NGO:          &domain.NGOProfile{OrganizationName: "Acme", AreasOfConcern: "phishing"},
		Volunteer:    &domain.VolunteerProfile{HoursAvailablePerWeek: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	require.NotNil(t, u.NGO)
	assert.Equal(t, "Acme", u.NGO.OrganizationName)
	assert.Nil(t, u.Volunteer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Volunteer(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Vic", "Vol", "v@example.org", "hash", "volunteer",
			(*string)(nil), (*string)(nil), intPtr(8), strPtr("docs/cbc"), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(
			int64(2), "Vic", "Vol", "v@example.org", "hash", "volunteer",
			(*string)(nil), (*string)(nil),
			intPtr(8), strPtr("docs/cbc"), (*string)(nil),
			now, now,
		))

	u, err := repo.Create(context.Background(), &domain.User{
		FirstName:    "Vic",
		LastName:     "Vol",
		Email:        "v@example.org",
		PasswordHash: "hash",
		Role:         domain.RoleVolunteer,
		Volunteer:    &domain.VolunteerProfile{HoursAvailablePerWeek: 8, CriminalBackgroundCheck: strPtr("docs/cbc")},
	})
	require.NoError(t, err)
	require.NotNil(t, u.Volunteer)
	assert.Equal(t, 8, u.Volunteer.HoursAvailablePerWeek)
	assert.Equal(t, "docs/cbc", *u.Volunteer.CriminalBackgroundCheck)
	assert.Nil(t, u.NGO)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_InvalidRole_NoQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	_, err := repo.Create(context.Background(), &domain.User{Email: "x@example.org", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail_ReturnsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &domain.User{
		FirstName: "A", LastName: "B", Email: "a@acme.org", PasswordHash: "h", Role: domain.RoleAdmin,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "USER_EMAIL_TAKEN", oopsErr.Code())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ghost@example.org").
		WillReturnRows(pgxmock.NewRows(userRowColumns))

	_, err := repo.FindByEmail(context.Background(), "ghost@example.org")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByID_ReturnsNGO(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(ngoRow(time.Now()))

	u, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNGO, u.Role)
	assert.Equal(t, "phishing", u.NGO.AreasOfConcern)
}

func TestListAll_ProjectsSummaryOnly(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, first_name, last_name, email, role FROM users").
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "role"}).
			AddRow(int64(1), "Ada", "Lovelace", "a@acme.org", "ngo").
			AddRow(int64(2), "Root", "Admin", "root@example.org", "admin"))

	users, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.RoleAdmin, users[1].Role)
}

func TestListVolunteers_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("WHERE role = 'volunteer'").
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "hours", "cbc", "resume"}))

	vols, err := repo.ListVolunteers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, vols)
	assert.Empty(t, vols)
}

func TestUpdateProfile_BuildsWhitelistedSet(t *testing.T) {
	repo, mock := newMockRepo(t)

	// keys are applied in sorted order: areasOfConcern, firstName
	mock.ExpectExec("UPDATE users SET areas_of_concern = \\$2, first_name = \\$3, updated_at = NOW\\(\\) WHERE id = \\$1").
		WithArgs(int64(5), "ransomware", "Grace").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateProfile(context.Background(), 5, map[domain.ProfileField]any{
		domain.FieldFirstName:      "Grace",
		domain.FieldAreasOfConcern: "ransomware",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_RejectsUnknownField(t *testing.T) {
	repo, mock := newMockRepo(t)

	err := repo.UpdateProfile(context.Background(), 5, map[domain.ProfileField]any{
		domain.ProfileField("password"): "hunter2",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProfileField)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL must run")
}

func TestUpdateProfile_Empty(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.UpdateProfile(context.Background(), 5, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateProfile_MissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE users SET last_name").
		WithArgs(int64(99), "Hopper").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateProfile(context.Background(), 99, map[domain.ProfileField]any{domain.FieldLastName: "Hopper"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateRole(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE users SET").
		WithArgs(int64(3), "admin").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateRole(context.Background(), 3, domain.RoleAdmin))

	mock.ExpectExec("UPDATE users SET").
		WithArgs(int64(4), "ngo").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateRole(context.Background(), 4, domain.RoleNGO), domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.UpdateRole(context.Background(), 4, "boss"), domain.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.DeleteByID(context.Background(), 8), domain.ErrUserNotFound)
}

func TestSaveResetToken_UnknownEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec("SET reset_token = \\$2").
		WithArgs("ghost@example.org", "hash", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SaveResetToken(context.Background(), "ghost@example.org", "hash", exp)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFindByResetToken_FiltersExpired(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("reset_token_expires_at > NOW\\(\\)").
		WithArgs("stale").
		WillReturnRows(pgxmock.NewRows(userRowColumns))

	_, err := repo.FindByResetToken(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
}

func TestConsumeResetToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("WHERE reset_token = \\$1 AND reset_token_expires_at > NOW\\(\\)").
		WithArgs("tok", "newhash").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.ConsumeResetToken(context.Background(), "tok", "newhash")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	mock.ExpectQuery("WHERE reset_token = \\$1 AND reset_token_expires_at > NOW\\(\\)").
		WithArgs("tok", "newhash").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.ConsumeResetToken(context.Background(), "tok", "newhash")
	assert.ErrorIs(t, err, domain.ErrResetTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetToken_StoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE users").
		WithArgs("tok", "newhash").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ConsumeResetToken(context.Background(), "tok", "newhash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrResetTokenInvalid)
}

func TestPurgeExpiredResetTokens(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now()

	mock.ExpectExec("reset_token_expires_at <= \\$1").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.PurgeExpiredResetTokens(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

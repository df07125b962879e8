package usecase

import (
	"context"
	"io"
	"path"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/repository"
)

// DirectoryUsecase serves the cross-role listings: NGOs browse volunteers and
// volunteers browse NGOs. Role gating happens in the transport layer.
type DirectoryUsecase struct {
	users repository.UserRepository
	docs  repository.DocumentStore
}

func NewDirectoryUsecase(users repository.UserRepository, docs repository.DocumentStore) *DirectoryUsecase {
	return &DirectoryUsecase{users: users, docs: docs}
}

func (d *DirectoryUsecase) ListVolunteers(ctx context.Context) ([]domain.VolunteerListing, error) {
	return d.users.ListVolunteers(ctx)
}

func (d *DirectoryUsecase) ListNGOs(ctx context.Context) ([]domain.NGOListing, error) {
	return d.users.ListNGOs(ctx)
}

type Document struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// VolunteerDocument opens one of a volunteer's uploads. The caller closes Body.
func (d *DirectoryUsecase) VolunteerDocument(ctx context.Context, volunteerID int64, kind domain.DocumentKind) (*Document, error) {
	if d.docs == nil {
		return nil, domain.ErrDocumentNotFound
	}

	user, err := d.users.FindByID(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleVolunteer || user.Volunteer == nil {
		return nil, domain.ErrUserNotFound
	}

	var key *string
	switch kind {
	case domain.DocumentResume:
		key = user.Volunteer.Resume
	case domain.DocumentCriminalBackgroundCheck:
		key = user.Volunteer.CriminalBackgroundCheck
	}
	if key == nil || *key == "" {
		return nil, domain.ErrDocumentNotFound
	}

	body, size, contentType, err := d.docs.Get(ctx, *key)
	if err != nil {
		return nil, err
	}
	return &Document{
		Body:        body,
		Size:        size,
		ContentType: contentType,
		Filename:    string(kind) + path.Ext(*key),
	}, nil
}

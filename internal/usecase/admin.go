package usecase

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/cyberaid/internal/domain"
	"github.com/ErlanBelekov/cyberaid/internal/repository"
)

type AdminUsecase struct {
	users  repository.UserRepository
	docs   repository.DocumentStore
	hasher passwordHasher
	logger *slog.Logger
}

func NewAdminUsecase(users repository.UserRepository, hasher passwordHasher, logger *slog.Logger) *AdminUsecase {
	return &AdminUsecase{
		users:  users,
		hasher: hasher,
		logger: logger.With("component", "admin_usecase"),
	}
}

// WithDocuments lets the admin flows clean up volunteer documents.
func (a *AdminUsecase) WithDocuments(docs repository.DocumentStore) *AdminUsecase {
	a.docs = docs
	return a
}

func (a *AdminUsecase) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	return a.users.ListAll(ctx)
}

// AddUser creates an account of any role, admins included. Documents are not accepted here.
func (a *AdminUsecase) AddUser(ctx context.Context, actor domain.Principal, in RegisterInput) (*domain.User, error) {
	in.normalize()
	in.CriminalBackgroundCheck, in.Resume = nil, nil
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	created, err := a.users.Create(ctx, in.toUser(hash))
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "user added by admin", "admin_id", actor.UserID, "user_id", created.ID, "role", created.Role)
	return created, nil
}

func (a *AdminUsecase) UpdateRole(ctx context.Context, actor domain.Principal, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	if id == actor.UserID && role != domain.RoleAdmin {
		return domain.ErrSelfModification
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.users.UpdateRole(ctx, id, role); err != nil {
		return err
	}
	if user.Role == domain.RoleVolunteer && role != domain.RoleVolunteer {
		a.removeDocuments(ctx, documentKeys(user))
	}
	a.logger.InfoContext(ctx, "role updated", "admin_id", actor.UserID, "user_id", id, "from", user.Role, "to", role)
	return nil
}

func (a *AdminUsecase) DeleteUser(ctx context.Context, actor domain.Principal, id int64) error {
	if id == actor.UserID {
		return domain.ErrSelfModification
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.users.DeleteByID(ctx, id); err != nil {
		return err
	}
	a.removeDocuments(ctx, documentKeys(user))
	a.logger.InfoContext(ctx, "user deleted by admin", "admin_id", actor.UserID, "user_id", id)
	return nil
}

func (a *AdminUsecase) removeDocuments(ctx context.Context, keys []string) {
	if a.docs == nil {
		return
	}
	for _, k := range keys {
		if err := a.docs.Delete(ctx, k); err != nil {
			a.logger.WarnContext(ctx, "remove document", "key", k, "error", err)
		}
	}
}

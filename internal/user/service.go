package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/core/events"
)

// Repository is the user half of the record store.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	// Delete removes the user together with every training record it owns.
	Delete(ctx context.Context, id int64) error
	ExistsByUsernameOrNIP(ctx context.Context, username, nip string) (usernameTaken, nipTaken bool, err error)
}

// Publisher receives a change event after each account is created or removed.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	publisher  Publisher
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) publish(ctx context.Context, eventType string, actorID, userID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewChange(eventType, actorID, userID, 0)); err != nil {
		s.logger.Warn("failed to publish user event", "event_type", eventType, "error", err)
	}
}

func (s *Service) ListUsers(ctx context.Context, caller auth.Identity, filter ListFilter) ([]*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	if err := auth.CanListUsers(caller); err != nil {
		s.logger.Warn("list users denied", "caller_id", caller.ID, "role", caller.Role)
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewStorageError(err)
	}
	return FromDataModelSlice(rows), nil
}

// GetUser returns any user to an admin, and only themselves to everyone else.
func (s *Service) GetUser(ctx context.Context, caller auth.Identity, id int64) (*User, error) {
	if caller.ID != id {
		if err := auth.CanListUsers(caller); err != nil {
			return nil, err
		}
	}
	return s.get(ctx, id)
}

func (s *Service) GetCurrentUser(ctx context.Context, caller auth.Identity) (*User, error) {
	return s.get(ctx, caller.ID)
}

func (s *Service) CreateUser(ctx context.Context, caller auth.Identity, dto CreateUserDTO) (*User, error) {
	if err := auth.CanManageUsers(caller); err != nil {
		s.logger.Warn("create user denied", "caller_id", caller.ID, "role", caller.Role)
		return nil, err
	}
	dto.Normalize()
	return s.create(ctx, caller.ID, dto)
}

// Register creates an active employee account for an anonymous caller.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	return s.create(ctx, 0, dto.AsCreate())
}

func (s *Service) UpdateUser(ctx context.Context, caller auth.Identity, id int64, dto UpdateUserDTO) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	if err := auth.CanManageUsers(caller); err != nil {
		s.logger.Warn("update user denied", "caller_id", caller.ID, "target_id", id)
		return nil, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appErr := dto.Validate(current); appErr != nil {
		return nil, appErr
	}

	newRole := current.Role
	if dto.Role != nil {
		newRole = auth.Role(*dto.Role)
	}
	deactivate := dto.Status != nil && *dto.Status == StatusInactive
	if err := auth.CanChangeAccount(caller, current.Role, newRole, deactivate); err != nil {
		s.logger.Warn("update user denied", "caller_id", caller.ID, "target_id", id, "admin", current.IsAdmin())
		return nil, err
	}

	dto.Apply(current)
	if dto.Password != nil {
		hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		current.PasswordHash = hash
	}

	row := ToDataModel(current)
	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, internal.NewStorageError(err)
	}

	s.logger.Info("user updated", "user_id", id, "by", caller.ID)
	return FromDataModel(row), nil
}

// DeleteUser removes a non-admin account and, with it, all of its training records.
func (s *Service) DeleteUser(ctx context.Context, caller auth.Identity, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	if err := auth.CanManageUsers(caller); err != nil {
		s.logger.Warn("delete user denied", "caller_id", caller.ID, "target_id", id)
		return err
	}

	target, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.CanDeleteUser(caller, target.Role); err != nil {
		s.logger.Warn("delete user denied", "caller_id", caller.ID, "target_id", id, "target_role", target.Role)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrUserNotFound
		}
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return internal.NewStorageError(err)
	}

	s.logger.Info("user deleted", "user_id", id, "by", caller.ID)
	s.publish(ctx, events.TypeUserDeleted, caller.ID, id)
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, internal.NewStorageError(err)
	}
	return FromDataModel(row), nil
}

// create stores a new account. actorID 0 marks self-registration.
func (s *Service) create(ctx context.Context, actorID int64, dto CreateUserDTO) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	usernameTaken, nipTaken, err := s.repo.ExistsByUsernameOrNIP(ctx, dto.Username, dto.NIP)
	if err != nil {
		s.logger.Error("failed to check user uniqueness", "error", err)
		return nil, internal.NewStorageError(err)
	}
	if usernameTaken {
		return nil, internal.NewConflictError("username is already taken", internal.ErrCodeDuplicateUsername)
	}
	if nipTaken {
		return nil, internal.NewConflictError("nip is already registered", internal.ErrCodeDuplicateNIP)
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		PasswordHash: hash,
		NIP:          dto.NIP,
		Nama:         dto.Nama,
		Pangkat:      dto.Pangkat,
		Golongan:     dto.Golongan,
		Jabatan:      dto.Jabatan,
		Pendidikan:   dto.Pendidikan,
		Role:         auth.Role(dto.Role),
		Status:       dto.Status,
	}

	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// a concurrent create won the race after the check above
			return nil, s.duplicateError(ctx, dto)
		}
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, internal.NewStorageError(err)
	}

	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	if actorID == 0 {
		actorID = row.ID
	}
	s.publish(ctx, events.TypeUserCreated, actorID, row.ID)
	return FromDataModel(row), nil
}

func (s *Service) duplicateError(ctx context.Context, dto CreateUserDTO) *internal.AppError {
	_, nipTaken, err := s.repo.ExistsByUsernameOrNIP(ctx, dto.Username, dto.NIP)
	if err == nil && nipTaken {
		return internal.NewConflictError("nip is already registered", internal.ErrCodeDuplicateNIP)
	}
	return internal.NewConflictError("username is already taken", internal.ErrCodeDuplicateUsername)
}

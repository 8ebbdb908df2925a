package training

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	"github.com/frahmantamala/training-records/internal/core/events"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/user"
)

// Repository is the training half of the record store.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*trainingDatamodel.Record, error)
	List(ctx context.Context, filter ListFilter) ([]*trainingDatamodel.Record, error)
	Create(ctx context.Context, r *trainingDatamodel.Record) error
	Update(ctx context.Context, r *trainingDatamodel.Record) error
	Delete(ctx context.Context, id int64) error
}

// OwnerLookup resolves record owners. user.Repository satisfies it.
type OwnerLookup interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

// Publisher receives a change event after each successful write.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	owners    OwnerLookup
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, owners OwnerLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		owners: owners,
		logger: logger,
	}
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) publish(ctx context.Context, eventType string, caller auth.Identity, recordID, ownerID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewChange(eventType, caller.ID, recordID, ownerID)); err != nil {
		s.logger.Warn("failed to publish training event", "event_type", eventType, "error", err)
	}
}

// ListRecords applies the caller's scope on top of the requested filter.
// Employees always get their own records, whatever owner they asked for.
func (s *Service) ListRecords(ctx context.Context, caller auth.Identity, filter ListFilter) ([]*Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	scope, err := auth.TrainingScope(caller)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		filter.OwnerID = scope
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list training records", "error", err)
		return nil, internal.NewStorageError(err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) GetRecord(ctx context.Context, caller auth.Identity, id int64) (*Record, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewTrainingRecord(caller, rec.OwnerID); err != nil {
		s.logger.Warn("view training record denied", "caller_id", caller.ID, "record_id", id)
		return nil, err
	}
	return rec, nil
}

func (s *Service) CreateRecord(ctx context.Context, caller auth.Identity, dto RecordDTO) (*Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	ownerID := caller.ID
	if dto.OwnerID != nil {
		ownerID = *dto.OwnerID
	}

	if err := auth.CanCreateTrainingRecord(caller, ownerID); err != nil {
		s.logger.Warn("create training record denied", "caller_id", caller.ID, "owner_id", ownerID)
		return nil, err
	}

	in, appErr := dto.validate()
	if appErr != nil {
		return nil, appErr
	}

	if err := s.ensureOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	rec := &Record{OwnerID: ownerID}
	in.apply(rec)

	row := ToDataModel(rec)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create training record", "error", err, "owner_id", ownerID)
		return nil, internal.NewStorageError(err)
	}

	s.logger.Info("training record created", "record_id", row.ID, "owner_id", ownerID, "by", caller.ID)
	s.publish(ctx, events.TypeTrainingCreated, caller, row.ID, ownerID)
	return FromDataModel(row), nil
}

func (s *Service) UpdateRecord(ctx context.Context, caller auth.Identity, id int64, dto RecordDTO) (*Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.CanUpdateTrainingRecord(caller, rec.OwnerID); err != nil {
		s.logger.Warn("update training record denied", "caller_id", caller.ID, "record_id", id)
		return nil, err
	}

	if dto.OwnerID != nil && *dto.OwnerID != rec.OwnerID {
		return nil, internal.NewValidationFieldError("owner_id", "a training record cannot change owner", internal.ErrCodeImmutableField)
	}

	in, appErr := dto.validate()
	if appErr != nil {
		return nil, appErr
	}
	in.apply(rec)

	row := ToDataModel(rec)
	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrTrainingNotFound
		}
		s.logger.Error("failed to update training record", "error", err, "record_id", id)
		return nil, internal.NewStorageError(err)
	}

	s.publish(ctx, events.TypeTrainingUpdated, caller, row.ID, row.OwnerID)
	return FromDataModel(row), nil
}

func (s *Service) DeleteRecord(ctx context.Context, caller auth.Identity, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.CanDeleteTrainingRecord(caller, rec.OwnerID); err != nil {
		s.logger.Warn("delete training record denied", "caller_id", caller.ID, "record_id", id)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrTrainingNotFound
		}
		s.logger.Error("failed to delete training record", "error", err, "record_id", id)
		return internal.NewStorageError(err)
	}

	s.logger.Info("training record deleted", "record_id", id, "by", caller.ID)
	s.publish(ctx, events.TypeTrainingDeleted, caller, id, rec.OwnerID)
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (*Record, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrTrainingNotFound
		}
		s.logger.Error("failed to load training record", "error", err, "record_id", id)
		return nil, internal.NewStorageError(err)
	}
	return FromDataModel(row), nil
}

func (s *Service) ensureOwner(ctx context.Context, ownerID int64) error {
	if _, err := s.owners.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return internal.NewNotFoundError("Owner does not exist", internal.ErrCodeOwnerNotFound)
		}
		return internal.NewStorageError(err)
	}
	return nil
}

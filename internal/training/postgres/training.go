package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	"github.com/frahmantamala/training-records/internal/training"
)

type TrainingRepository struct {
	db *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) training.Repository {
	return &TrainingRepository{db: db}
}

func (r *TrainingRepository) GetByID(ctx context.Context, id int64) (*trainingDatamodel.Record, error) {
	var rec trainingDatamodel.Record
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, training.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List orders by start date, newest first. The year filter is a half-open
// date range so that an index on start_date can serve it.
func (r *TrainingRepository) List(ctx context.Context, filter training.ListFilter) ([]*trainingDatamodel.Record, error) {
	query := r.db.WithContext(ctx).Model(&trainingDatamodel.Record{})
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Year != nil {
		from := time.Date(*filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("start_date >= ? AND start_date < ?", from, from.AddDate(1, 0, 0))
	}

	var records []*trainingDatamodel.Record
	err := query.Order("start_date DESC, id DESC").Find(&records).Error
	return records, err
}

func (r *TrainingRepository) Create(ctx context.Context, rec *trainingDatamodel.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *TrainingRepository) Update(ctx context.Context, rec *trainingDatamodel.Record) error {
	result := r.db.WithContext(ctx).Model(&trainingDatamodel.Record{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"theme":            rec.Theme,
		"organizer":        rec.Organizer,
		"start_date":       rec.StartDate,
		"end_date":         rec.EndDate,
		"notes":            rec.Notes,
		"certificate_path": rec.CertificatePath,
		"updated_at":       time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return training.ErrNotFound
	}
	return nil
}

func (r *TrainingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&trainingDatamodel.Record{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return training.ErrNotFound
	}
	return nil
}

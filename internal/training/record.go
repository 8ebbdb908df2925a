package training

import (
	"errors"
	"time"

	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
)

// DateLayout is the wire format of start and end dates.
const DateLayout = "2006-01-02"

// Record is one attended training or workshop event.
type Record struct {
	ID              int64     `json:"id"`
	OwnerID         int64     `json:"owner_id"`
	Theme           string    `json:"theme"`
	Organizer       string    `json:"organizer"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Notes           *string   `json:"notes,omitempty"`
	CertificatePath *string   `json:"certificate_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *Record) HasCertificate() bool {
	return r.CertificatePath != nil && *r.CertificatePath != ""
}

// Year is the calendar year the training started in.
func (r *Record) Year() int {
	return r.StartDate.Year()
}

var ErrNotFound = errors.New("training record not found")

// ListFilter narrows a listing. Nil fields mean "any".
type ListFilter struct {
	OwnerID *int64
	Year    *int
}

func ToDataModel(r *Record) *trainingDatamodel.Record {
	return &trainingDatamodel.Record{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Theme:           r.Theme,
		Organizer:       r.Organizer,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Notes:           r.Notes,
		CertificatePath: r.CertificatePath,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromDataModel(r *trainingDatamodel.Record) *Record {
	return &Record{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Theme:           r.Theme,
		Organizer:       r.Organizer,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Notes:           r.Notes,
		CertificatePath: r.CertificatePath,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*trainingDatamodel.Record) []*Record {
	result := make([]*Record, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}

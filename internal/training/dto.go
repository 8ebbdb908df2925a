package training

import (
	"strings"
	"time"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/core/common/validation"
)

// RecordDTO is the create and update form. OwnerID is optional on create
// (defaults to the caller) and must not change on update.
type RecordDTO struct {
	OwnerID         *int64  `json:"owner_id,omitempty"`
	Theme           string  `json:"theme"`
	Organizer       string  `json:"organizer"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Notes           *string `json:"notes,omitempty"`
	CertificatePath *string `json:"certificate_path,omitempty"`
}

type RecordsResponse struct {
	Records []*Record `json:"records"`
	Total   int       `json:"total"`
}

// recordInput is a validated RecordDTO.
type recordInput struct {
	Theme           string
	Organizer       string
	StartDate       time.Time
	EndDate         time.Time
	Notes           *string
	CertificatePath *string
}

func (d RecordDTO) validate() (recordInput, *internal.AppError) {
	theme := strings.TrimSpace(d.Theme)
	organizer := strings.TrimSpace(d.Organizer)
	start, _ := parseDate(d.StartDate)
	end, _ := parseDate(d.EndDate)

	v := validation.NewValidator()
	v.Field("theme", theme).Required().MaxLength(255)
	v.Field("organizer", organizer).Required().MaxLength(255)
	v.Field("start_date", d.StartDate).Required().Custom(dateFormat("start_date"))
	v.Field("end_date", d.EndDate).Required().Custom(dateFormat("end_date"))
	v.Field("end_date", end).NotBefore(start, "start_date")
	if appErr := v.Validate(); appErr != nil {
		return recordInput{}, appErr
	}

	return recordInput{
		Theme:           theme,
		Organizer:       organizer,
		StartDate:       start,
		EndDate:         end,
		Notes:           blankToNil(d.Notes),
		CertificatePath: blankToNil(d.CertificatePath),
	}, nil
}

func (in recordInput) apply(r *Record) {
	r.Theme = in.Theme
	r.Organizer = in.Organizer
	r.StartDate = in.StartDate
	r.EndDate = in.EndDate
	r.Notes = in.Notes
	r.CertificatePath = in.CertificatePath
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

func dateFormat(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		if _, err := parseDate(value.(string)); err != nil {
			return internal.NewValidationFieldError(field, field+" must be a date in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
		}
		return nil
	}
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

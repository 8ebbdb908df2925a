package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/stats"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/user"
)

// Export is a rendered document ready to be sent or saved.
type Export struct {
	Filename    string
	ContentType string
	Data        *bytes.Buffer
}

type Service struct {
	users     user.Repository
	trainings training.Repository
	formatter Formatter
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(users user.Repository, trainings training.Repository, formatter Formatter, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:     users,
		trainings: trainings,
		formatter: formatter,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source. Used by tests and the export command.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Statistics is the organisation-wide monitoring snapshot.
func (s *Service) Statistics(ctx context.Context, caller auth.Identity, year *int) (stats.Snapshot, error) {
	if err := auth.CanViewStatistics(caller); err != nil {
		s.logger.Warn("statistics denied", "caller_id", caller.ID, "role", caller.Role)
		return stats.Snapshot{}, err
	}
	return s.snapshot(ctx, year)
}

// MyProgress is the caller's own row of the snapshot. Only monitored
// employees have one.
func (s *Service) MyProgress(ctx context.Context, caller auth.Identity, year *int) (stats.EmployeeProgress, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	row, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return stats.EmployeeProgress{}, internal.ErrUserNotFound
		}
		return stats.EmployeeProgress{}, internal.NewStorageError(err)
	}

	owner := caller.ID
	records, err := s.trainings.List(ctx, training.ListFilter{OwnerID: &owner})
	if err != nil {
		return stats.EmployeeProgress{}, internal.NewStorageError(err)
	}

	snap := stats.Compute(stats.Query{
		Users:   []*user.User{user.FromDataModel(row)},
		Records: training.FromDataModelSlice(records),
		Year:    year,
		Now:     s.clock(),
	})

	progress, ok := snap.ProgressOf(caller.ID)
	if !ok {
		return stats.EmployeeProgress{}, internal.ErrForbidden
	}
	return progress, nil
}

func (s *Service) ExportStatistics(ctx context.Context, caller auth.Identity, year *int) (*Export, error) {
	snap, err := s.Statistics(ctx, caller, year)
	if err != nil {
		return nil, err
	}
	return s.RenderStatistics(snap)
}

// RenderStatistics turns a snapshot into the monitoring workbook.
func (s *Service) RenderStatistics(snap stats.Snapshot) (*Export, error) {
	rows := make([]Row, 0, len(snap.PerEmployee))
	for i, p := range snap.PerEmployee {
		rows = append(rows, Row{
			{Key: "No", Value: i + 1},
			{Key: "NIP", Value: p.NIP},
			{Key: "Nama", Value: p.Nama},
			{Key: "Jabatan", Value: p.Jabatan},
			{Key: fmt.Sprintf("Pelatihan %d", snap.Year), Value: p.YearRecordCount},
			{Key: fmt.Sprintf("Jam %d", snap.Year), Value: p.YearHours},
			{Key: "Total Pelatihan", Value: p.RecordCount},
			{Key: "Total Jam", Value: p.TotalHours},
			{Key: "Sertifikat", Value: p.CertificateCount},
			{Key: "Pelatihan Terakhir", Value: p.LastTraining},
			{Key: "Status", Value: p.Status},
		})
	}

	title := fmt.Sprintf("Monitoring Pelatihan %d: kelengkapan %.1f%%, sertifikat %.1f%%, rata-rata %d jam",
		snap.Year, snap.CompletionRate, snap.CertificateRate, snap.AverageHours)
	return s.render(title, fmt.Sprintf("statistik-pelatihan-%d.xlsx", snap.Year), rows)
}

// ExportTrainings renders the records the caller is allowed to list.
func (s *Service) ExportTrainings(ctx context.Context, caller auth.Identity, year *int) (*Export, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	scope, err := auth.TrainingScope(caller)
	if err != nil {
		return nil, err
	}

	records, err := s.trainings.List(ctx, training.ListFilter{OwnerID: scope, Year: year})
	if err != nil {
		s.logger.Error("failed to load training records for export", "error", err)
		return nil, internal.NewStorageError(err)
	}

	owners, err := s.users.List(ctx, user.ListFilter{})
	if err != nil {
		return nil, internal.NewStorageError(err)
	}
	byID := make(map[int64]*user.User, len(owners))
	for _, o := range owners {
		byID[o.ID] = user.FromDataModel(o)
	}

	rows := make([]Row, 0, len(records))
	for i, row := range records {
		rec := training.FromDataModel(row)
		var nama, nip string
		if o, ok := byID[rec.OwnerID]; ok {
			nama, nip = o.Nama, o.NIP
		}
		rows = append(rows, Row{
			{Key: "No", Value: i + 1},
			{Key: "NIP", Value: nip},
			{Key: "Nama", Value: nama},
			{Key: "Tema", Value: rec.Theme},
			{Key: "Penyelenggara", Value: rec.Organizer},
			{Key: "Tanggal Mulai", Value: rec.StartDate},
			{Key: "Tanggal Selesai", Value: rec.EndDate},
			{Key: "Jam", Value: stats.Hours(rec.Notes)},
			{Key: "Keterangan", Value: rec.Notes},
			{Key: "Sertifikat", Value: yesNo(rec.HasCertificate())},
		})
	}

	suffix := "semua"
	if year != nil {
		suffix = fmt.Sprintf("%d", *year)
	}
	return s.render("Daftar Pelatihan Pegawai", "pelatihan-"+suffix+".xlsx", rows)
}

func (s *Service) ExportUsers(ctx context.Context, caller auth.Identity) (*Export, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	if err := auth.CanListUsers(caller); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, user.ListFilter{})
	if err != nil {
		return nil, internal.NewStorageError(err)
	}

	rows := make([]Row, 0, len(users))
	for i, row := range users {
		u := user.FromDataModel(row)
		rows = append(rows, Row{
			{Key: "No", Value: i + 1},
			{Key: "Username", Value: u.Username},
			{Key: "NIP", Value: u.NIP},
			{Key: "Nama", Value: u.Nama},
			{Key: "Pangkat", Value: u.Pangkat},
			{Key: "Golongan", Value: u.Golongan},
			{Key: "Jabatan", Value: u.Jabatan},
			{Key: "Pendidikan", Value: u.Pendidikan},
			{Key: "Role", Value: string(u.Role)},
			{Key: "Status", Value: u.Status},
		})
	}
	return s.render("Daftar Pegawai", "pegawai.xlsx", rows)
}

func (s *Service) snapshot(ctx context.Context, year *int) (stats.Snapshot, error) {
	ctx, cancel := internal.WithTimeout(ctx, internal.DefaultStoreTimeout)
	defer cancel()

	users, err := s.users.List(ctx, user.ListFilter{Role: string(auth.RoleEmployee), Status: user.StatusActive})
	if err != nil {
		s.logger.Error("failed to load employees for statistics", "error", err)
		return stats.Snapshot{}, internal.NewStorageError(err)
	}

	// every year is needed for the all-time columns
	records, err := s.trainings.List(ctx, training.ListFilter{})
	if err != nil {
		s.logger.Error("failed to load training records for statistics", "error", err)
		return stats.Snapshot{}, internal.NewStorageError(err)
	}

	return stats.Compute(stats.Query{
		Users:   user.FromDataModelSlice(users),
		Records: training.FromDataModelSlice(records),
		Year:    year,
		Now:     s.clock(),
	}), nil
}

func (s *Service) render(title, filename string, rows []Row) (*Export, error) {
	buf, err := s.formatter.Format(title, rows)
	if err != nil {
		s.logger.Error("failed to render report", "error", err, "filename", filename)
		return nil, internal.NewInternalError("Failed to generate report", err).WithCode(internal.ErrCodeExportFailed)
	}
	return &Export{Filename: filename, ContentType: XLSXContentType, Data: buf}, nil
}

func (s *Service) clock() time.Time {
	return s.now().In(s.location)
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/user"
	"github.com/frahmantamala/training-records/pkg/logger"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin, a supervisor and sample employees with training records.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		initLogger(cfg.Observability.Logging)

		st, err := openStores(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer st.Close()

		ctx := context.Background()
		if clearData && st.DB != nil {
			if err := st.DB.WithContext(ctx).Exec("DELETE FROM training_records").Error; err != nil {
				log.Fatalf("failed to clear training records: %v", err)
			}
			if err := st.DB.WithContext(ctx).Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing users and training records")
		}

		if err := seedSampleData(ctx, st, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
		fmt.Printf("Seeding completed. Every seeded account uses the password %q\n", seedPassword)
	},
}

type seedUser struct {
	username, nip, nama, pangkat, golongan, jabatan, pendidikan string
	role                                                        auth.Role
	status                                                      string
}

type seedRecord struct {
	owner, theme, organizer string
	start                   time.Time
	days                    int
	notes, certificate      string
}

var seedUsers = []seedUser{
	{"admin", "198001012005011001", "Administrator", "Penata", "III/c", "Pranata Komputer", "S1", auth.RoleAdmin, user.StatusActive},
	{"kepala", "197505052000031002", "Kepala BPS", "Pembina", "IV/a", "Kepala", "S2", auth.RoleSupervisor, user.StatusActive},
	{"budi", "199002022015031003", "Budi Santoso", "Penata Muda", "III/a", "Statistisi", "S1", auth.RoleEmployee, user.StatusActive},
	{"siti", "199103032016042004", "Siti Rahma", "Penata Muda Tk. I", "III/b", "Statistisi", "D4", auth.RoleEmployee, user.StatusActive},
	{"andi", "199204042017011005", "Andi Wijaya", "Pengatur", "II/c", "Pranata Komputer", "D3", auth.RoleEmployee, user.StatusActive},
	{"dewi", "198806062012122006", "Dewi Lestari", "Penata", "III/c", "Statistisi", "S1", auth.RoleEmployee, user.StatusInactive},
}

func seedRecords(year int) []seedRecord {
	on := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	return []seedRecord{
		{"budi", "Pelatihan Statistik Dasar", "Pusdiklat BPS", on(year, time.February, 12), 4, "32 jam pelajaran", "certificates/budi-statdas.pdf"},
		{"budi", "Workshop Pengolahan Data", "BPS Provinsi", on(year, time.May, 20), 1, "8", ""},
		{"siti", "Pelatihan Statistik Dasar", "Pusdiklat BPS", on(year, time.March, 4), 4, "32 jam", "certificates/siti-statdas.pdf"},
		{"andi", "Bimtek Sensus Pertanian", "BPS Provinsi", on(year-1, time.August, 14), 2, "16 jam", ""},
		{"dewi", "Pelatihan Kepemimpinan", "LAN", on(year, time.April, 1), 5, "40", ""},
	}
}

// seedSampleData is idempotent: existing usernames are left alone and their
// records are not duplicated.
func seedSampleData(ctx context.Context, st *stores, bcryptCost int) error {
	lg := logger.LoggerWrapper()

	hash, err := auth.HashPassword(seedPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	ids := make(map[string]int64, len(seedUsers))
	created := make(map[string]bool, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := st.Users.GetByUsername(ctx, su.username)
		if err == nil {
			ids[su.username] = existing.ID
			continue
		}
		if !errors.Is(err, user.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", su.username, err)
		}

		row := &userDatamodel.User{
			Username:     su.username,
			PasswordHash: hash,
			NIP:          su.nip,
			Nama:         su.nama,
			Pangkat:      su.pangkat,
			Golongan:     su.golongan,
			Jabatan:      su.jabatan,
			Pendidikan:   su.pendidikan,
			Role:         string(su.role),
			Status:       su.status,
		}
		if err := st.Users.Create(ctx, row); err != nil {
			return fmt.Errorf("create %s: %w", su.username, err)
		}
		ids[su.username] = row.ID
		created[su.username] = true
		lg.Info("seeded user", "username", su.username, "role", su.role)
	}

	for _, sr := range seedRecords(time.Now().Year()) {
		if !created[sr.owner] {
			continue
		}
		rec := &trainingDatamodel.Record{
			OwnerID:         ids[sr.owner],
			Theme:           sr.theme,
			Organizer:       sr.organizer,
			StartDate:       sr.start,
			EndDate:         sr.start.AddDate(0, 0, sr.days-1),
			Notes:           optional(sr.notes),
			CertificatePath: optional(sr.certificate),
		}
		if err := st.Trainings.Create(ctx, rec); err != nil {
			return internal.NewStorageError(err)
		}
	}

	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

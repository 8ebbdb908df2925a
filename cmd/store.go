package cmd

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	authPostgres "github.com/frahmantamala/training-records/internal/auth/postgres"
	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/store/memory"
	"github.com/frahmantamala/training-records/internal/training"
	trainingPostgres "github.com/frahmantamala/training-records/internal/training/postgres"
	"github.com/frahmantamala/training-records/internal/transport/rest"
	"github.com/frahmantamala/training-records/internal/user"
	userPostgres "github.com/frahmantamala/training-records/internal/user/postgres"
)

// stores is the record store picked by database.driver.
type stores struct {
	Users       user.Repository
	Trainings   training.Repository
	Credentials auth.RepositoryAPI
	Checks      map[string]rest.Check
	// DB is nil for the memory driver.
	DB    *gorm.DB
	Close func() error
}

func openStores(cfg internal.DatabaseConfig) (*stores, error) {
	if cfg.Driver == internal.DriverMemory {
		mem := memory.New()
		return &stores{
			Users:       mem.Users(),
			Trainings:   mem.Trainings(),
			Credentials: mem.Credentials(),
			Checks:      map[string]rest.Check{"memory": mem.Ping},
			Close:       func() error { return nil },
		}, nil
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// sqlx shares gorm's pool; the driver name only picks the bind style
	bindDriver := "pgx"
	if cfg.Driver == internal.DriverSQLite {
		bindDriver = "sqlite3"
	}
	sqlxDB := sqlx.NewDb(sqlDB, bindDriver)

	return &stores{
		Users:       userPostgres.NewUserRepository(db),
		Trainings:   trainingPostgres.NewTrainingRepository(db),
		Credentials: authPostgres.NewRepository(sqlxDB),
		Checks: map[string]rest.Check{
			cfg.Driver: func(ctx context.Context) error { return sqlxDB.PingContext(ctx) },
		},
		DB:    db,
		Close: sqlDB.Close,
	}, nil
}

// initDB opens the gorm connection. SQLite schemas are created in place;
// PostgreSQL schemas come from the migrate command.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverPostgres:
		dialector = postgres.Open(cfg.GetDSN())
	case internal.DriverSQLite:
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == internal.DriverSQLite {
		if err := db.AutoMigrate(&userDatamodel.User{}, &trainingDatamodel.Record{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	return db, nil
}

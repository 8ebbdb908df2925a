package postgres_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/training-records/internal/auth"
	authPostgres "github.com/frahmantamala/training-records/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
)

func TestAuthPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Postgres Suite")
}

var _ = Describe("Credential Repository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo *authPostgres.Repository
		budi *userDatamodel.User
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		budi = &userDatamodel.User{
			Username:     "budi",
			PasswordHash: "$2a$04$hash",
			NIP:          "198001012006041001",
			Nama:         "Budi",
			Role:         "employee",
			Status:       "active",
		}
		Expect(db.Create(budi).Error).To(Succeed())

		// sqlx shares the gorm pool, as the server does
		repo = authPostgres.NewRepository(sqlx.NewDb(sqlDB, "sqlite3"))
	})

	AfterEach(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	It("should load credentials by username", func() {
		creds, err := repo.GetCredentialsByUsername(ctx, "budi")

		Expect(err).NotTo(HaveOccurred())
		Expect(creds.UserID).To(Equal(budi.ID))
		Expect(creds.PasswordHash).To(Equal("$2a$04$hash"))
		Expect(creds.Role).To(Equal("employee"))
		Expect(creds.IsActive()).To(BeTrue())
	})

	It("should load credentials by id", func() {
		creds, err := repo.GetCredentialsByID(ctx, budi.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Username).To(Equal("budi"))
	})

	It("should map missing rows to ErrCredentialsNotFound", func() {
		_, err := repo.GetCredentialsByUsername(ctx, "nobody")
		Expect(err).To(MatchError(auth.ErrCredentialsNotFound))

		_, err = repo.GetCredentialsByID(ctx, 999)
		Expect(err).To(MatchError(auth.ErrCredentialsNotFound))
	})
})

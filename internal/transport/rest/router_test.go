package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/report"
	"github.com/frahmantamala/training-records/internal/store/memory"
	"github.com/frahmantamala/training-records/internal/training"
	"github.com/frahmantamala/training-records/internal/transport/middleware"
	"github.com/frahmantamala/training-records/internal/transport/rest"
	"github.com/frahmantamala/training-records/internal/user"
	"github.com/frahmantamala/training-records/pkg/logger"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Router Suite")
}

type apiClient struct {
	router http.Handler
}

func (c apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c apiClient) login(username string) string {
	rec := c.do(http.MethodPost, "/api/v1/auth/login", "", auth.LoginDTO{Username: username, Password: "password"})
	Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
	var tokens auth.AuthTokens
	Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(Succeed())
	return tokens.AccessToken
}

func errorCode(rec *httptest.ResponseRecorder) internal.ErrorCode {
	var resp struct {
		Error internal.AppError `json:"error"`
	}
	Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
	return resp.Error.Code
}

var _ = Describe("API routes", func() {
	var (
		ctx     context.Context
		store   *memory.Store
		client  apiClient
		metrics *middleware.Metrics
		ids     map[string]int64
		healthy error
	)

	addUser := func(username, nip, role, status string) {
		hash, err := auth.HashPassword("password", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		u := &userDatamodel.User{Username: username, PasswordHash: hash, NIP: nip, Nama: username, Role: role, Status: status}
		Expect(store.Users().Create(ctx, u)).To(Succeed())
		ids[username] = u.ID
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.New()
		ids = map[string]int64{}
		healthy = nil

		addUser("admin", "100000000000000001", "admin", "active")
		addUser("kepala", "100000000000000002", "kepala_bps", "active")
		addUser("budi", "198001012006041001", "employee", "active")
		addUser("siti", "199001012015042001", "employee", "active")
		addUser("dewi", "199505052019032001", "employee", "inactive")

		lg := logger.Discard()
		tokens := auth.NewJWTTokenGenerator("router-test-access-secret-0123456789", "router-test-refresh-secret-0123456789", 15*time.Minute, time.Hour)
		authService := auth.NewService(store.Credentials(), tokens, lg)
		userService := user.NewService(store.Users(), bcrypt.MinCost, lg)
		trainingService := training.NewService(store.Trainings(), store.Users(), lg)
		reportService := report.NewService(store.Users(), store.Trainings(), report.NewXLSXFormatter(), time.UTC, lg).
			WithClock(func() time.Time { return time.Date(2024, 8, 17, 9, 0, 0, 0, time.UTC) })

		metrics = middleware.NewMetrics("training_records")
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Dependencies{
			AuthHandler:     auth.NewHandler(authService),
			UserHandler:     user.NewHandler(userService),
			TrainingHandler: training.NewHandler(trainingService),
			ReportHandler:   report.NewHandler(reportService),
			HealthChecks: map[string]rest.Check{
				"store": func(ctx context.Context) error { return healthy },
			},
			Metrics:        metrics,
			MetricsPath:    "/metrics",
			AllowedOrigins: "*",
			Logger:         lg,
		})
		client = apiClient{router: router}
	})

	Describe("health", func() {
		It("should report healthy and then degraded", func() {
			Expect(client.do(http.MethodGet, "/api/v1/ping", "", nil).Code).To(Equal(http.StatusOK))
			Expect(client.do(http.MethodGet, "/api/v1/health", "", nil).Code).To(Equal(http.StatusOK))

			healthy = errors.New("connection refused")
			rec := client.do(http.MethodGet, "/api/v1/health", "", nil)
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(rec.Body.String()).To(ContainSubstring("connection refused"))
		})
	})

	Describe("authentication", func() {
		It("should refuse inactive users and wrong passwords", func() {
			rec := client.do(http.MethodPost, "/api/v1/auth/login", "", auth.LoginDTO{Username: "dewi", Password: "password"})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeUserInactive))

			rec = client.do(http.MethodPost, "/api/v1/auth/login", "", auth.LoginDTO{Username: "budi", Password: "salah"})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should require a token on protected routes", func() {
			rec := client.do(http.MethodGet, "/api/v1/trainings", "", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeInvalidToken))
		})

		It("should register a new employee who can then log in", func() {
			rec := client.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
				"username": "andi",
				"password": "password",
				"nip":      "199202022016021002",
				"nama":     "Andi",
				"role":     "admin",
			})
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			Expect(rec.Body.String()).NotTo(ContainSubstring("password"))

			token := client.login("andi")
			rec = client.do(http.MethodGet, "/api/v1/users/me", token, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var me user.User
			Expect(json.Unmarshal(rec.Body.Bytes(), &me)).To(Succeed())
			Expect(me.Role).To(Equal(auth.RoleEmployee))
		})

		It("should rotate tokens on refresh", func() {
			rec := client.do(http.MethodPost, "/api/v1/auth/login", "", auth.LoginDTO{Username: "budi", Password: "password"})
			var tokens auth.AuthTokens
			Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(Succeed())

			rec = client.do(http.MethodPost, "/api/v1/auth/refresh", "", auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = client.do(http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})
	})

	Describe("users", func() {
		It("should keep the directory admin-only", func() {
			rec := client.do(http.MethodGet, "/api/v1/users", client.login("budi"), nil)
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = client.do(http.MethodGet, "/api/v1/users?role=employee", client.login("admin"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp user.UsersResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(3))
		})

		It("should never delete an admin", func() {
			rec := client.do(http.MethodDelete, "/api/v1/users/1", client.login("admin"), nil)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeAdminUndeletable))
		})

		It("should not let an admin demote themselves before a delete", func() {
			token := client.login("admin")

			rec := client.do(http.MethodPut, "/api/v1/users/1", token, map[string]string{"role": "employee"})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeAdminLocked))

			rec = client.do(http.MethodDelete, "/api/v1/users/1", token, nil)
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeAdminUndeletable))
		})

		It("should reject a malformed id", func() {
			rec := client.do(http.MethodGet, "/api/v1/users/abc", client.login("admin"), nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("trainings", func() {
		record := map[string]string{
			"theme":      "Pelatihan Statistik Dasar",
			"organizer":  "Pusdiklat BPS",
			"start_date": "2024-05-06",
			"end_date":   "2024-05-10",
			"notes":      "40 jam",
		}

		It("should create and list an employee's own records", func() {
			budi := client.login("budi")
			rec := client.do(http.MethodPost, "/api/v1/trainings", budi, record)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

			siti := client.login("siti")
			Expect(client.do(http.MethodPost, "/api/v1/trainings", siti, record).Code).To(Equal(http.StatusCreated))

			rec = client.do(http.MethodGet, "/api/v1/trainings?owner_id=0", budi, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = client.do(http.MethodGet, "/api/v1/trainings?year=2024", budi, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var list training.RecordsResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list.Total).To(Equal(1))
			Expect(list.Records[0].OwnerID).To(Equal(ids["budi"]))
		})

		It("should reject an inverted date range", func() {
			bad := map[string]string{"theme": "x", "organizer": "y", "start_date": "2024-05-10", "end_date": "2024-05-06"}

			rec := client.do(http.MethodPost, "/api/v1/trainings", client.login("budi"), bad)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidDateRange)))
		})

		It("should leave deletion to admins", func() {
			budi := client.login("budi")
			rec := client.do(http.MethodPost, "/api/v1/trainings", budi, record)
			var created training.Record
			Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())

			path := "/api/v1/trainings/" + jsonNumber(created.ID)
			Expect(client.do(http.MethodDelete, path, budi, nil).Code).To(Equal(http.StatusForbidden))
			Expect(client.do(http.MethodDelete, path, client.login("admin"), nil).Code).To(Equal(http.StatusNoContent))
			Expect(client.do(http.MethodGet, path, budi, nil).Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("reports", func() {
		BeforeEach(func() {
			rec := client.do(http.MethodPost, "/api/v1/trainings", client.login("budi"), map[string]string{
				"theme": "SAKERNAS", "organizer": "BPS Provinsi", "start_date": "2024-02-01", "end_date": "2024-02-03", "notes": "24 jam",
			})
			Expect(rec.Code).To(Equal(http.StatusCreated))
		})

		It("should give the supervisor statistics and deny employees", func() {
			rec := client.do(http.MethodGet, "/api/v1/reports/statistics", client.login("kepala"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["year"]).To(BeNumerically("==", 2024))
			Expect(body["completion_rate"]).To(BeNumerically("==", 50))

			rec = client.do(http.MethodGet, "/api/v1/reports/statistics", client.login("budi"), nil)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should give employees their own progress", func() {
			rec := client.do(http.MethodGet, "/api/v1/reports/me?year=2024", client.login("budi"), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"status":"complete"`))

			rec = client.do(http.MethodGet, "/api/v1/reports/me?year=20x4", client.login("budi"), nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should serve spreadsheet downloads", func() {
			rec := client.do(http.MethodGet, "/api/v1/reports/statistics/export?year=2024", client.login("admin"), nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal(report.XLSXContentType))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("statistik-pelatihan-2024.xlsx"))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))

			Expect(client.do(http.MethodGet, "/api/v1/reports/users/export", client.login("kepala"), nil).Code).To(Equal(http.StatusForbidden))
			Expect(client.do(http.MethodGet, "/api/v1/reports/trainings/export", client.login("budi"), nil).Code).To(Equal(http.StatusOK))
		})
	})

	It("should expose request metrics", func() {
		client.do(http.MethodGet, "/api/v1/ping", "", nil)

		rec := client.do(http.MethodGet, "/metrics", "", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("training_records_http_requests_total"))
		Expect(rec.Body.String()).To(ContainSubstring(`status="200"`))
	})
})

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

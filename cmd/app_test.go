package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/snwareresearch/project-tracker/api"
	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	projectDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/project"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

type capturingMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *capturingMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

var _ = ginkgo.Describe("application", func() {
	var (
		app     *application
		mailer  *capturingMailer
		rebuild func(mutate func(*internal.Config)) *application
	)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "token", Value: token})
		}
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		return rec
	}

	login := func(email, password string) string {
		rec := do(http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK), rec.Body.String())
		for _, c := range rec.Result().Cookies() {
			if c.Name == "token" {
				return c.Value
			}
		}
		ginkgo.Fail("login did not set the session cookie")
		return ""
	}

	ginkgo.BeforeEach(func() {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(gdb.AutoMigrate(&userDatamodel.User{}, &projectDatamodel.SaleProject{})).To(gomega.Succeed())
		sqlDB, err := gdb.DB()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		cfg := internal.Defaults()
		cfg.Security.JWTSecret = strings.Repeat("k", 40)
		cfg.Security.BCryptCost = 4
		cfg.Security.AuthRateLimit = ""

		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		mailer = &capturingMailer{}
		app, err = buildApplication(&cfg, gdb, sqlDB, mailer, lg)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		rebuild = func(mutate func(*internal.Config)) *application {
			c := cfg
			mutate(&c)
			other, err := buildApplication(&c, gdb, sqlDB, mailer, lg)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			return other
		}

		created, err := seedSuperAdmin(context.Background(), app.AuthService, auth.SignupDTO{
			Name: "Root Admin", Email: "root@snwareresearch.com", Password: "Root123!",
			Role: auth.RoleSuperAdmin, Department: []string{"Management"},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(created).To(gomega.BeTrue())
	})

	ginkgo.It("seeds the super admin only once", func() {
		created, err := seedSuperAdmin(context.Background(), app.AuthService, auth.SignupDTO{
			Name: "Root Admin", Email: "ROOT@snwareresearch.com", Password: "Root123!",
			Role: auth.RoleSuperAdmin, Department: []string{"Management"},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(created).To(gomega.BeFalse())
	})

	ginkgo.It("runs the account and project lifecycle end to end", func() {
		rootToken := login("root@snwareresearch.com", "Root123!")

		rec := do(http.MethodPost, "/auth/signup", rootToken,
			`{"name":"Sam Sales","email":"sam@snwareresearch.com","password":"Sales123!","role":"Executive","department":["Sales"]}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated), rec.Body.String())

		samToken := login("sam@snwareresearch.com", "Sales123!")

		rec = do(http.MethodGet, "/auth/me", samToken, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var me auth.MeResponse
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &me)).To(gomega.Succeed())
		gomega.Expect(me.User.Role).To(gomega.Equal(auth.RoleExecutive))

		gomega.Expect(do(http.MethodGet, "/api/v1/users", samToken, "").Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(do(http.MethodPost, "/auth/signup", samToken,
			`{"name":"Mia Lead","email":"mia@snwareresearch.com","password":"Lead123!","role":"Manager","department":["Sales"]}`).Code).
			To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(do(http.MethodGet, "/api/v1/users", "", "").Code).To(gomega.Equal(http.StatusUnauthorized))

		rec = do(http.MethodGet, "/api/v1/users", rootToken, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("password"))

		rec = do(http.MethodGet, "/api/v1/sales-reps", samToken, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Sam Sales"))
		gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("Root Admin"))

		rec = do(http.MethodGet, "/api/v1/projects/generate-id", samToken, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var preview struct {
			ProjectID string `json:"project_id"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &preview)).To(gomega.Succeed())
		gomega.Expect(preview.ProjectID).To(gomega.HaveSuffix("000001"))

		rec = do(http.MethodPost, "/api/v1/projects", samToken,
			`{"project_name":"Groundwater Study","project_date":"2025-02-14","client_name":"Delta Farms","sales_rep":"Sam Sales"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated), rec.Body.String())
		var created struct {
			ProjectID string `json:"project_id"`
			ID        int64  `json:"id"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(gomega.Succeed())
		gomega.Expect(created.ProjectID).To(gomega.Equal(preview.ProjectID))

		rec = do(http.MethodPut, fmt.Sprintf("/api/v1/projects/%d", created.ID), samToken, `{"current_status":"Won"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK), rec.Body.String())

		rec = do(http.MethodGet, "/api/v1/projects?client=Delta%20Farms", samToken, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"current_status":"Won"`))
	})

	ginkgo.It("throttles forgot-password per socket even when forwarded headers rotate", func() {
		limited := rebuild(func(c *internal.Config) { c.Security.AuthRateLimit = "2-M" })

		codes := map[int]int{}
		for i := 0; i < 6; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password",
				strings.NewReader(`{"email":"nobody@snwareresearch.com"}`))
			req.Header.Set("Content-Type", "application/json")
			req.RemoteAddr = "203.0.113.9:40000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
			req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.0.%d", i))
			rec := httptest.NewRecorder()
			limited.Router.ServeHTTP(rec, req)
			codes[rec.Code]++
		}
		gomega.Expect(codes[http.StatusNotFound]).To(gomega.Equal(2))
		gomega.Expect(codes[http.StatusTooManyRequests]).To(gomega.Equal(4))
	})

	ginkgo.It("accepts anonymous executive signups only", func() {
		rec := do(http.MethodPost, "/auth/signup", "",
			`{"name":"Ana Walkin","email":"ana@snwareresearch.com","password":"Walk123!","role":"Executive","department":["Sales"]}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated), rec.Body.String())
		gomega.Expect(login("ana@snwareresearch.com", "Walk123!")).ToNot(gomega.BeEmpty())

		rec = do(http.MethodPost, "/auth/signup", "",
			`{"name":"Eve Climber","email":"eve@snwareresearch.com","password":"Walk123!","role":"Super Admin","department":["Sales"]}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

		rec = do(http.MethodPost, "/auth/signup", "",
			`{"name":"Ana Again","email":"ANA@snwareresearch.com","password":"Walk123!","role":"Executive","department":["Sales"]}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusConflict))
	})

	ginkgo.It("locks out a disabled account and lets a reset password in", func() {
		rootToken := login("root@snwareresearch.com", "Root123!")
		rec := do(http.MethodPost, "/auth/signup", rootToken,
			`{"name":"Lee Lab","email":"lee@snwareresearch.com","password":"Lab1234!","role":"Manager","department":["Lab"]}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		var signup auth.SignupResponse
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &signup)).To(gomega.Succeed())

		rec = do(http.MethodPost, "/auth/forgot-password", "", `{"email":"lee@snwareresearch.com"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(mailer.bodies).To(gomega.HaveLen(1))
		temp := strings.Fields(strings.SplitN(mailer.bodies[0], "temporary password: ", 2)[1])[0]

		rec = do(http.MethodPost, "/auth/update-password", "",
			fmt.Sprintf(`{"email":"lee@snwareresearch.com","currentPassword":%q,"newPassword":"Fresh123!"}`, temp))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK), rec.Body.String())
		login("lee@snwareresearch.com", "Fresh123!")

		rec = do(http.MethodPatch, "/api/v1/users/"+signup.User.ID, rootToken, `{"is_active":false}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK), rec.Body.String())

		rec = do(http.MethodPost, "/auth/login", "", `{"email":"lee@snwareresearch.com","password":"Fresh123!"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})

	ginkgo.It("serves health, the API document and metrics", func() {
		gomega.Expect(do(http.MethodGet, "/api/v1/health", "", "").Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodGet, "/api/v1/ping", "", "").Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(do(http.MethodGet, "/openapi.yml", "", "").Body.Bytes()).To(gomega.Equal(api.OpenAPISpec))

		login("root@snwareresearch.com", "Root123!")
		rec := do(http.MethodGet, "/metrics", "", "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`project_tracker_auth_attempts_total{operation="login",outcome="success"} 1`))
	})

	ginkgo.It("documents every API route it serves", func() {
		doc, err := openapi3.NewLoader().LoadFromData(api.OpenAPISpec)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		undocumented := []string{}
		err = chi.Walk(app.Router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/") && !strings.HasPrefix(route, "/auth/") {
				return nil
			}
			path := strings.TrimSuffix(route, "/")
			item := doc.Paths.Find(path)
			if item == nil || item.GetOperation(method) == nil {
				undocumented = append(undocumented, method+" "+path)
			}
			return nil
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(undocumented).To(gomega.BeEmpty())
	})
})

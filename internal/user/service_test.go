package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/core/common/validation"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]*userDatamodel.User
}

func (m *memoryRepository) put(id, name string, role auth.Role, active bool, departments ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &userDatamodel.User{
		ID: id, Name: name, Email: id + "@snwareresearch.com", Role: string(role),
		Department: departments, IsActive: active, CreatedAt: time.Now(),
	}
}

func (m *memoryRepository) List(context.Context) ([]*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*userDatamodel.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryRepository) Update(_ context.Context, id string, changes Changes) (*userDatamodel.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if changes.Role != nil {
		u.Role = string(*changes.Role)
	}
	if changes.Department != nil {
		u.Department = changes.Department
	}
	if changes.IsActive != nil {
		u.IsActive = *changes.IsActive
	}
	cp := *u
	return &cp, nil
}

// ListActiveInDepartment deliberately over-matches like a LIKE query would.
func (m *memoryRepository) ListActiveInDepartment(context.Context, string) ([]*userDatamodel.User, error) {
	all, _ := m.List(context.Background())
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func rolePtr(r auth.Role) *auth.Role { return &r }
func boolPtr(b bool) *bool          { return &b }

var _ = ginkgo.Describe("Service", func() {
	var (
		ctx        context.Context
		repo       *memoryRepository
		svc        *Service
		superAdmin *auth.Claims
		admin      *auth.Claims
		manager    *auth.Claims
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &memoryRepository{users: map[string]*userDatamodel.User{}}
		repo.put("root", "Root", auth.RoleSuperAdmin, true, "Management")
		repo.put("adm", "Admin", auth.RoleAdmin, true, "Management")
		repo.put("mgr", "Manager", auth.RoleManager, true, "Sales")
		repo.put("exe", "Exec", auth.RoleExecutive, true, "Inside Sales", "Lab")
		repo.put("old", "Former", auth.RoleExecutive, false, "Sales")
		repo.put("dev", "Dev", auth.RoleExecutive, true, "Programming")

		svc = NewService(repo, validation.New("snwareresearch.com"), time.Second, discardLogger())
		superAdmin = &auth.Claims{UserID: "root", Role: auth.RoleSuperAdmin}
		admin = &auth.Claims{UserID: "adm", Role: auth.RoleAdmin}
		manager = &auth.Claims{UserID: "mgr", Role: auth.RoleManager}
	})

	ginkgo.It("lists every user", func() {
		users, err := svc.List(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(users).To(gomega.HaveLen(6))
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("lets an admin promote an executive to manager", func() {
			u, err := svc.Update(ctx, admin, "exe", UpdateUserDTO{Role: rolePtr("manager")})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleManager))
		})

		ginkgo.It("lets an admin disable an account and change departments", func() {
			u, err := svc.Update(ctx, admin, "dev", UpdateUserDTO{IsActive: boolPtr(false), Department: []string{" QA ", "qa"}})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.IsActive).To(gomega.BeFalse())
			gomega.Expect(u.Department).To(gomega.Equal([]string{"QA"}))
		})

		ginkgo.It("stops an admin from touching a super admin", func() {
			_, err := svc.Update(ctx, admin, "root", UpdateUserDTO{IsActive: boolPtr(false)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("stops an admin from granting super admin", func() {
			_, err := svc.Update(ctx, admin, "exe", UpdateUserDTO{Role: rolePtr(auth.RoleSuperAdmin)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("lets a super admin grant super admin", func() {
			u, err := svc.Update(ctx, superAdmin, "adm", UpdateUserDTO{Role: rolePtr(auth.RoleSuperAdmin)})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleSuperAdmin))
		})

		ginkgo.It("stops a manager from managing accounts", func() {
			_, err := svc.Update(ctx, manager, "exe", UpdateUserDTO{IsActive: boolPtr(false)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("prevents self lock-out", func() {
			_, err := svc.Update(ctx, admin, "adm", UpdateUserDTO{IsActive: boolPtr(false)})
			gomega.Expect(err).To(gomega.HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))

			_, err = svc.Update(ctx, admin, "adm", UpdateUserDTO{Role: rolePtr(auth.RoleExecutive)})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("rejects empty and invalid updates", func() {
			_, err := svc.Update(ctx, admin, "exe", UpdateUserDTO{})
			gomega.Expect(err).To(gomega.HaveOccurred())

			_, err = svc.Update(ctx, admin, "exe", UpdateUserDTO{Department: []string{}})
			gomega.Expect(err).To(gomega.HaveOccurred())

			_, err = svc.Update(ctx, admin, "exe", UpdateUserDTO{Role: rolePtr("Owner")})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
		})

		ginkgo.It("reports an unknown user", func() {
			_, err := svc.Update(ctx, admin, "ghost", UpdateUserDTO{IsActive: boolPtr(true)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})

	ginkgo.It("lists active members of sales departments only", func() {
		reps, err := svc.SalesReps(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(reps).To(gomega.Equal([]SalesRep{
			{ID: "exe", Name: "Exec"},
			{ID: "mgr", Name: "Manager"},
		}))
	})
})

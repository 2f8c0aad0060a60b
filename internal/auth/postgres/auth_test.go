package postgres

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/snwareresearch/project-tracker/internal/auth"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

var _ = ginkgo.Describe("Repository", func() {
	var (
		ctx  context.Context
		repo *Repository
	)

	newUser := func(email string) *userDatamodel.User {
		return &userDatamodel.User{
			Name:         "Lab Tech",
			Email:        email,
			PasswordHash: "$2a$04$placeholder",
			Role:         string(auth.RoleExecutive),
			Department:   []string{"Lab", "Sales"},
			IsActive:     true,
		}
	}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = NewRepository(openTestDB())
	})

	ginkgo.It("stores and finds users case-insensitively", func() {
		u := newUser("Tech@SNWareResearch.com")
		gomega.Expect(repo.Insert(ctx, u)).To(gomega.Succeed())
		gomega.Expect(u.ID).ToNot(gomega.BeEmpty())

		found, err := repo.FindByEmail(ctx, "TECH@snwareresearch.com")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(found.ID).To(gomega.Equal(u.ID))
		gomega.Expect(found.Email).To(gomega.Equal("tech@snwareresearch.com"))
		gomega.Expect(found.Department).To(gomega.Equal([]string{"Lab", "Sales"}))
	})

	ginkgo.It("reports a missing user", func() {
		_, err := repo.FindByEmail(ctx, "missing@snwareresearch.com")
		gomega.Expect(err).To(gomega.MatchError(auth.ErrCredentialNotFound))
	})

	ginkgo.It("rejects a duplicate email", func() {
		gomega.Expect(repo.Insert(ctx, newUser("dup@snwareresearch.com"))).To(gomega.Succeed())
		err := repo.Insert(ctx, newUser("DUP@snwareresearch.com"))
		gomega.Expect(err).To(gomega.MatchError(auth.ErrDuplicateEmail))
	})

	ginkgo.It("replaces the password hash", func() {
		u := newUser("reset@snwareresearch.com")
		gomega.Expect(repo.Insert(ctx, u)).To(gomega.Succeed())

		gomega.Expect(repo.UpdatePassword(ctx, u.ID, "$2a$04$other")).To(gomega.Succeed())
		found, err := repo.FindByEmail(ctx, u.Email)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(found.PasswordHash).To(gomega.Equal("$2a$04$other"))

		gomega.Expect(repo.UpdatePassword(ctx, "no-such-id", "x")).To(gomega.MatchError(auth.ErrCredentialNotFound))
	})
})

package postgres

import (
	"context"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	projectDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/project"
	"github.com/snwareresearch/project-tracker/internal/project"
)

var _ = ginkgo.Describe("ProjectRepository", func() {
	var (
		ctx  context.Context
		repo project.RepositoryAPI
	)

	day := func(d int) time.Time {
		return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
	}

	create := func(pid, client, status string, date time.Time) *projectDatamodel.SaleProject {
		p := &projectDatamodel.SaleProject{
			ProjectID:     pid,
			ProjectName:   "Project " + pid,
			ProjectDate:   date,
			ClientName:    client,
			CurrentStatus: status,
			CreatedBy:     "user-1",
		}
		gomega.Expect(repo.Create(ctx, p)).To(gomega.Succeed())
		return p
	}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = NewProjectRepository(openTestDB())
	})

	ginkgo.It("returns the latest identifiers for a prefix, highest first", func() {
		create("SNW25000002", "A", "Open", day(1))
		create("SNW25000010", "A", "Open", day(2))
		create("SNW24999999", "A", "Open", day(3))

		ids, err := repo.LatestIdentifiers(ctx, "SNW25", 20)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ids).To(gomega.Equal([]string{"SNW25000010", "SNW25000002"}))

		ids, err = repo.LatestIdentifiers(ctx, "SNW25", 1)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ids).To(gomega.Equal([]string{"SNW25000010"}))
	})

	ginkgo.It("maps a taken identifier to ErrDuplicateIdentifier", func() {
		create("SNW25000001", "A", "Open", day(1))
		err := repo.Create(ctx, &projectDatamodel.SaleProject{ProjectID: "SNW25000001", ProjectName: "dup", ProjectDate: day(1)})
		gomega.Expect(err).To(gomega.MatchError(project.ErrDuplicateIdentifier))
	})

	ginkgo.It("filters listings by client, status and date range", func() {
		create("SNW25000001", "Acme", "Open", day(5))
		create("SNW25000002", "Acme", "Won", day(15))
		create("SNW25000003", "Globex", "Open", day(25))

		all, err := repo.List(ctx, project.ListFilter{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(all).To(gomega.HaveLen(3))

		acme, err := repo.List(ctx, project.ListFilter{Client: "Acme"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(acme).To(gomega.HaveLen(2))

		open, err := repo.List(ctx, project.ListFilter{Client: "Acme", Status: "Open"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(open).To(gomega.HaveLen(1))
		gomega.Expect(open[0].ProjectID).To(gomega.Equal("SNW25000001"))

		ranged, err := repo.List(ctx, project.ListFilter{From: day(10), To: day(20)})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ranged).To(gomega.HaveLen(1))
		gomega.Expect(ranged[0].ProjectID).To(gomega.Equal("SNW25000002"))
	})

	ginkgo.It("updates mutable columns and reports missing rows", func() {
		p := create("SNW25000001", "Acme", "Open", day(5))

		p.CurrentStatus = "Won"
		p.ProjectID = "SNW25999999"
		gomega.Expect(repo.Update(ctx, p)).To(gomega.Succeed())

		got, err := repo.GetByID(ctx, p.ID)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(got.CurrentStatus).To(gomega.Equal("Won"))
		gomega.Expect(got.ProjectID).To(gomega.Equal("SNW25000001"))

		_, err = repo.GetByID(ctx, 999)
		gomega.Expect(err).To(gomega.MatchError(project.ErrNotFound))
		gomega.Expect(repo.Update(ctx, &projectDatamodel.SaleProject{ID: 999})).To(gomega.MatchError(project.ErrNotFound))
	})
})

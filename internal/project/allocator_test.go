package project

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/snwareresearch/project-tracker/internal"
)

var _ = ginkgo.Describe("Allocator", func() {
	var (
		ctx   context.Context
		clock func() time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		clock = func() time.Time { return time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC) }
	})

	ginkgo.It("starts the year at serial 1", func() {
		a := NewAllocator(staticSource(nil), WithAllocatorClock(clock))
		id, err := a.Next(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal("SNW25000001"))
	})

	ginkgo.It("continues from the highest identifier of the current year", func() {
		a := NewAllocator(staticSource{"SNW25000010", "SNW25000009", "SNW24999999"}, WithAllocatorClock(clock))
		id, err := a.Next(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal("SNW25000011"))
	})

	ginkgo.It("ignores malformed identifiers", func() {
		a := NewAllocator(staticSource{"SNW25XYZ", "SNW2500000A", "SNW25000003"}, WithAllocatorClock(clock))
		id, err := a.Next(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(id).To(gomega.Equal("SNW25000004"))
	})

	ginkgo.It("fails once the yearly serial space is used up", func() {
		a := NewAllocator(staticSource{"SNW25999999"}, WithAllocatorClock(clock))
		_, err := a.Next(ctx)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrSerialExhausted))
	})

	ginkgo.It("reports store failures as internal errors", func() {
		repo := newMemoryRepository()
		repo.readErr = errors.New("connection refused")
		a := NewAllocator(repo, WithAllocatorClock(clock))
		_, err := a.Next(ctx)
		appErr, ok := internal.IsAppError(err)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
	})

	ginkgo.It("bounds the store read with the query timeout", func() {
		src := &deadlineSource{}
		a := NewAllocator(src, WithAllocatorClock(clock), WithAllocatorQueryTimeout(2*time.Second))
		start := time.Now()
		_, err := a.Next(ctx)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(src.hasDeadline).To(gomega.BeTrue())
		gomega.Expect(src.deadline).To(gomega.BeTemporally("~", start.Add(2*time.Second), time.Second))
	})

	ginkgo.It("does not reserve on Peek", func() {
		a := NewAllocator(staticSource(nil), WithAllocatorClock(clock))
		first, _ := a.Peek(ctx)
		second, _ := a.Peek(ctx)
		next, _ := a.Next(ctx)
		gomega.Expect(first).To(gomega.Equal("SNW25000001"))
		gomega.Expect(second).To(gomega.Equal(first))
		gomega.Expect(next).To(gomega.Equal(first))

		after, _ := a.Peek(ctx)
		gomega.Expect(after).To(gomega.Equal("SNW25000002"))
	})

	ginkgo.It("never hands out the same identifier twice in one process", func() {
		a := NewAllocator(staticSource(nil), WithAllocatorClock(clock))

		const callers = 50
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[string]bool{}
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer ginkgo.GinkgoRecover()
				id, err := a.Next(ctx)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				mu.Lock()
				ids[id] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		gomega.Expect(ids).To(gomega.HaveLen(callers))
		gomega.Expect(ids).To(gomega.HaveKey("SNW25000001"))
		gomega.Expect(ids).To(gomega.HaveKey("SNW25000050"))
	})

	ginkgo.It("restarts the serial when the year rolls over", func() {
		now := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
		a := NewAllocator(staticSource(nil), WithAllocatorClock(func() time.Time { return now }))

		_, _ = a.Next(ctx)
		id, _ := a.Next(ctx)
		gomega.Expect(id).To(gomega.Equal("SNW25000002"))

		now = now.Add(2 * time.Second)
		id, _ = a.Next(ctx)
		gomega.Expect(id).To(gomega.Equal("SNW26000001"))
	})
})

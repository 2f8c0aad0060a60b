package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("BcryptHasher", func() {
	var hasher *BcryptHasher

	ginkgo.BeforeEach(func() {
		hasher = testHasher()
	})

	ginkgo.It("verifies the password it hashed", func() {
		hash, err := hasher.Hash("Secret1!")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(hash).ToNot(gomega.Equal("Secret1!"))
		gomega.Expect(hasher.Verify("Secret1!", hash)).To(gomega.BeTrue())
	})

	ginkgo.It("rejects a different password", func() {
		hash, err := hasher.Hash("Secret1!")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(hasher.Verify("Secret2!", hash)).To(gomega.BeFalse())
	})

	ginkgo.It("salts every hash", func() {
		first, _ := hasher.Hash("Secret1!")
		second, _ := hasher.Hash("Secret1!")
		gomega.Expect(first).ToNot(gomega.Equal(second))
	})

	ginkgo.It("treats a garbage hash as a mismatch", func() {
		gomega.Expect(hasher.Verify("Secret1!", "not-a-hash")).To(gomega.BeFalse())
	})

	ginkgo.It("rejects an out of range cost", func() {
		_, err := NewBcryptHasher(bcrypt.MaxCost + 1)
		gomega.Expect(err).To(gomega.HaveOccurred())

		h, err := NewBcryptHasher(12)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(h.Cost()).To(gomega.Equal(12))
	})
})

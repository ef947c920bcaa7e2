package category

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadHints", func() {
	var (
		path  string
		hints []Hint
		err   error
	)

	JustBeforeEach(func() {
		hints, err = LoadHints(path)
	})

	When("no path is given", func() {
		BeforeEach(func() {
			path = ""
		})

		It("returns the built-in table", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(hints).NotTo(BeEmpty())
			Expect(hints[0].KeywordTerms).To(ContainElement("migros"))
		})
	})

	When("the file exists", func() {
		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "hints.yaml")
			data := []byte("- match_terms: [Getränke]\n  keywords: [Feldschlösschen]\n")
			Expect(os.WriteFile(path, data, 0644)).To(Succeed())
		})

		It("normalizes the terms", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(hints).To(Equal([]Hint{{
				MatchTerms:   []string{"getraenke"},
				KeywordTerms: []string{"feldschloesschen"},
			}}))
		})
	})

	When("the file is missing", func() {
		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "nope.yaml")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("reading hints file")))
		})
	})

	When("the file is not a hint list", func() {
		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "bad.yaml")
			Expect(os.WriteFile(path, []byte("match_terms: 3"), 0644)).To(Succeed())
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("parsing hints")))
		})
	})
})

package utils

import (
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates to exactly the limit including the ellipsis", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is..."))
		Expect(result).To(HaveLen(10))
	})

	It("counts runes, not bytes", func() {
		result := Truncate("ünïcödé strings are fine", 8)
		Expect(utf8.RuneCountInString(result)).To(Equal(8))
		Expect(result).To(Equal("ünïcö..."))
	})

	It("drops the ellipsis when the limit is too small for it", func() {
		Expect(Truncate("abcdef", 2)).To(Equal("ab"))
		Expect(Truncate("abcdef", 0)).To(BeEmpty())
	})
})

package calllog_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crewlog/pkg/calllog"
)

var _ = Describe("Slug", func() {
	It("replaces unsafe characters with underscores", func() {
		Expect(calllog.Slug("Analyze: Q3 sales/data!")).To(Equal("Analyze__Q3_sales_data_"))
	})

	It("keeps hyphens and underscores", func() {
		Expect(calllog.Slug("step-1_load")).To(Equal("step-1_load"))
	})

	It("truncates to 80 characters", func() {
		Expect(calllog.Slug(strings.Repeat("a", 200))).To(HaveLen(80))
	})

	It("maps empty and unknown hints to unknown_task", func() {
		Expect(calllog.Slug("")).To(Equal("unknown_task"))
		Expect(calllog.Slug(calllog.UnknownTask)).To(Equal("unknown_task"))
	})

	It("builds zero-padded artifact prefixes", func() {
		Expect(calllog.ArtifactPrefix(0, "Find leads")).To(Equal("001_Find_leads"))
		Expect(calllog.ArtifactPrefix(41, "")).To(Equal("042_unknown_task"))
	})
})

var _ = Describe("FilterNoise", func() {
	markers := calllog.DefaultMarkers()

	It("drops tool usage counters outside marker windows", func() {
		var lines []string
		lines = append(lines, "Request to litellm:")
		for range 10 {
			lines = append(lines, "context")
		}
		lines = append(lines, "Tool: search | Times Used: 3", "kept line")

		out := calllog.FilterNoise(strings.Join(lines, "\n"), markers)
		Expect(out).NotTo(ContainSubstring("Times Used"))
		Expect(out).To(ContainSubstring("kept line"))
	})

	It("keeps lines right after a marker even when noisy", func() {
		out := calllog.FilterNoise("RAW RESPONSE:\nTool: x | Times Used: 1", markers)
		Expect(out).To(ContainSubstring("Times Used: 1"))
	})

	It("drops oversized JSON blobs but keeps usage lines", func() {
		blob := "{" + strings.Repeat("x", 600) + "}"
		usage := `"usage": {"prompt_tokens": 1} ` + strings.Repeat("y", 400)

		out := calllog.FilterNoise(strings.Join([]string{"a", blob, usage}, "\n"), markers)
		Expect(out).NotTo(ContainSubstring(blob))
		Expect(out).To(ContainSubstring(`"usage"`))
	})

	It("preserves the number of request markers", func() {
		log := "Request to litellm:\nRAW RESPONSE:\nRequest to litellm:\n"
		out := calllog.FilterNoise(log, markers)
		Expect(calllog.Segment(out, markers)).To(HaveLen(2))
	})
})

package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/report"
	"github.com/papercomputeco/crewlog/pkg/storage"
	"github.com/papercomputeco/crewlog/pkg/storage/inmemory"
)

func testResult(runID string, tokens int) *pipeline.Result {
	blocks := []*calllog.CallBlock{
		{Index: 0, Usage: &calllog.TokenUsage{Total: tokens, Cost: 0.5}, FinalAnswer: "ok"},
	}
	return &pipeline.Result{RunID: runID, Blocks: blocks, Diagnostics: report.Diagnose(blocks)}
}

var _ = Describe("Driver", func() {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
	})

	It("stores and retrieves runs", func() {
		Expect(driver.SaveRun(ctx, testResult("a", 10))).To(Succeed())
		Expect(driver.SaveRun(ctx, testResult("b", 20))).To(Succeed())

		run, err := driver.GetRun(ctx, "b")
		Expect(err).NotTo(HaveOccurred())
		Expect(run.TotalTokens).To(Equal(20))
		Expect(run.FinalAnswers).To(Equal(1))

		runs, err := driver.ListRuns(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].ID).To(Equal("a"))

		blocks, err := driver.Blocks(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Cost).To(Equal(0.5))
	})

	It("replaces a run saved twice without reordering", func() {
		Expect(driver.SaveRun(ctx, testResult("a", 10))).To(Succeed())
		Expect(driver.SaveRun(ctx, testResult("b", 10))).To(Succeed())
		Expect(driver.SaveRun(ctx, testResult("a", 99))).To(Succeed())

		runs, err := driver.ListRuns(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].ID).To(Equal("a"))
		Expect(runs[0].TotalTokens).To(Equal(99))
	})

	It("returns NotFoundError for unknown runs", func() {
		_, err := driver.GetRun(ctx, "nope")
		Expect(err).To(MatchError(storage.NotFoundError{RunID: "nope"}))
		Expect(err.Error()).To(Equal("run not found: nope"))
	})

	It("rejects a nil result", func() {
		Expect(driver.SaveRun(ctx, nil)).NotTo(Succeed())
	})
})

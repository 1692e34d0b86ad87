package artifact_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crewlog/pkg/artifact"
	"github.com/papercomputeco/crewlog/pkg/calllog"
)

var _ = Describe("Writer", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "artifact-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("writes an input and output file per block", func() {
		blocks := []*calllog.CallBlock{
			{Index: 0, TaskHint: "Research: the market", RequestText: "req one", ResponseText: "resp one"},
			{Index: 1, TaskHint: calllog.UnknownTask, RequestText: "req two"},
		}
		out := filepath.Join(tmpDir, "out")
		result := artifact.New(nil).Write(out, blocks)

		Expect(result.Skipped).To(BeEmpty())
		Expect(result.Written).To(HaveLen(4))

		data, err := os.ReadFile(filepath.Join(out, "001_Research__the_market_input.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("req one"))

		data, err = os.ReadFile(filepath.Join(out, "002_unknown_task_output.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(BeEmpty())

		Expect(result.Summary()).To(ContainSubstring("Saved 4 files"))
	})

	It("records failures instead of returning them", func() {
		blocker := filepath.Join(tmpDir, "file")
		Expect(os.WriteFile(blocker, []byte("x"), 0o600)).To(Succeed())

		blocks := []*calllog.CallBlock{{Index: 0, TaskHint: "a"}, {Index: 1, TaskHint: "b"}}
		result := artifact.New(nil).Write(filepath.Join(blocker, "sub"), blocks)

		Expect(result.Written).To(BeEmpty())
		Expect(result.Skipped).To(HaveLen(2))
		Expect(result.Skipped[1].Block).To(Equal(1))
		Expect(result.Skipped[0].Err).To(HaveOccurred())
	})
})

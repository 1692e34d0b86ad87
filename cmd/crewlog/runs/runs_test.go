package runscmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	runscmder "github.com/papercomputeco/crewlog/cmd/crewlog/runs"
	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/storage"
	"github.com/papercomputeco/crewlog/pkg/storage/sqlite"
)

const storedLog = `2024-05-01 10:00:00 Request to litellm:
Current Task: Research the market
model='gpt-4o'
2024-05-01 10:00:04 RAW RESPONSE:
{"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}}
Final Answer: three sources
`

var _ = Describe("Runs command", func() {
	var (
		tmpDir string
		dbPath string
		runID  string
		stdout *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := runscmder.NewRunsCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(stdout)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--config-dir", filepath.Join(tmpDir, ".crewlog")}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "crewlog-runs-test-*")
		Expect(err).NotTo(HaveOccurred())

		dbPath = filepath.Join(tmpDir, "crewlog.db")
		driver, err := sqlite.NewDriver(dbPath)
		Expect(err).NotTo(HaveOccurred())

		result := pipeline.New().Analyze(storedLog)
		result.Path = "run.log"
		runID = result.RunID
		Expect(driver.SaveRun(context.Background(), result)).To(Succeed())
		Expect(driver.Close()).To(Succeed())

		stdout = &bytes.Buffer{}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("accepts at most one run id", func() {
		cmd := runscmder.NewRunsCmd()
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
	})

	It("lists stored runs", func() {
		Expect(execute("--sqlite", dbPath)).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("Stored runs"))
		Expect(stdout.String()).To(ContainSubstring(runID))
		Expect(stdout.String()).To(ContainSubstring("run.log"))
	})

	It("lists runs as JSON", func() {
		Expect(execute("--sqlite", dbPath, "--json")).To(Succeed())

		var runs []storage.Run
		Expect(json.Unmarshal(stdout.Bytes(), &runs)).To(Succeed())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].ID).To(Equal(runID))
		Expect(runs[0].TotalTokens).To(Equal(150))
		Expect(runs[0].FinalAnswers).To(Equal(1))
	})

	It("shows the blocks of one run", func() {
		Expect(execute("--sqlite", dbPath, runID)).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("Call blocks"))
		Expect(stdout.String()).To(ContainSubstring("Research the market"))
		Expect(stdout.String()).To(ContainSubstring("gpt-4o"))
	})

	It("shows one run as JSON", func() {
		Expect(execute("--sqlite", dbPath, "--json", runID)).To(Succeed())

		var shown struct {
			ID         string          `json:"id"`
			CallBlocks []storage.Block `json:"call_blocks"`
		}
		Expect(json.Unmarshal(stdout.Bytes(), &shown)).To(Succeed())
		Expect(shown.ID).To(Equal(runID))
		Expect(shown.CallBlocks).To(HaveLen(1))
		Expect(shown.CallBlocks[0].FinalAnswer).To(Equal("three sources"))
	})

	It("reports an unknown run id", func() {
		err := execute("--sqlite", dbPath, "missing")
		Expect(err).To(HaveOccurred())

		var nf storage.NotFoundError
		Expect(errors.As(err, &nf)).To(BeTrue())
		Expect(nf.RunID).To(Equal("missing"))
	})

	It("does not create a database that does not exist", func() {
		missing := filepath.Join(tmpDir, "nope.db")
		Expect(execute("--sqlite", missing)).NotTo(Succeed())
		Expect(missing).NotTo(BeAnExistingFile())
	})

	It("says so when the database is empty", func() {
		emptyPath := filepath.Join(tmpDir, "empty.db")
		driver, err := sqlite.NewDriver(emptyPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Close()).To(Succeed())

		Expect(execute("--sqlite", emptyPath)).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("No runs stored yet."))
	})
})

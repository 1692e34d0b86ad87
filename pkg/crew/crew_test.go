package crew_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/crewlog/pkg/crew"
)

const tasksYAML = `
research_task:
  description: >
    Research the market. Collect at least five sources.
  expected_output: A list of sources
  agent: researcher

analysis_task:
  description: Analyze the output of 'research_task' and summarize trends.
  expected_output: A trend summary
  agent: analyst

report_task:
  description: Write the report.
  expected_output: A markdown report
  agent: writer
  context: [analysis_task, research_task, analysis_task, report_task, ghost_task]
`

const agentsYAML = `
researcher:
  role: Senior Researcher
  goal: Find sources
  backstory: Curious
  allow_delegation: false
  verbose: true

analyst:
  role: Data Analyst
  goal: Find trends
  backstory: Precise
`

var _ = Describe("ParseTasks", func() {
	It("preserves declaration order", func() {
		tasks, _, err := crew.ParseTasks([]byte(tasksYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(HaveLen(3))
		Expect(tasks[0].ID).To(Equal("research_task"))
		Expect(tasks[1].ID).To(Equal("analysis_task"))
		Expect(tasks[2].ID).To(Equal("report_task"))
		Expect(tasks[0].Agent).To(Equal("researcher"))
		Expect(tasks[0].ExpectedOutput).To(Equal("A list of sources"))
	})

	It("infers dependencies from quoted task ids", func() {
		tasks, _, err := crew.ParseTasks([]byte(tasksYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks[0].Dependencies).To(BeEmpty())
		Expect(tasks[1].Dependencies).To(Equal([]string{"research_task"}))
	})

	It("uses explicit lists and reports self references, duplicates and unknown ids", func() {
		tasks, issues, err := crew.ParseTasks([]byte(tasksYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks[2].Dependencies).To(Equal([]string{"analysis_task", "research_task", "ghost_task"}))
		Expect(issues).To(ConsistOf(
			crew.Issue{Kind: crew.IssueDuplicate, TaskID: "report_task", Dependency: "analysis_task"},
			crew.Issue{Kind: crew.IssueSelfReference, TaskID: "report_task", Dependency: "report_task"},
			crew.Issue{Kind: crew.IssueUnknownDependency, TaskID: "report_task", Dependency: "ghost_task"},
		))
	})

	It("does not infer a dependency on itself", func() {
		tasks, issues, err := crew.ParseTasks([]byte("a:\n  description: see 'a' and 'b'\nb:\n  description: x\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks[0].Dependencies).To(Equal([]string{"b"}))
		Expect(issues).To(BeEmpty())
	})

	It("accepts an empty document", func() {
		tasks, issues, err := crew.ParseTasks(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(BeEmpty())
		Expect(issues).To(BeEmpty())
	})

	It("rejects a non-mapping document", func() {
		_, _, err := crew.ParseTasks([]byte("- a\n- b\n"))
		Expect(err).To(MatchError(crew.ErrNotMapping))
	})
})

var _ = Describe("ParseAgents", func() {
	It("decodes agents in order", func() {
		agents, err := crew.ParseAgents([]byte(agentsYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(agents).To(HaveLen(2))
		Expect(agents[0]).To(Equal(crew.Agent{
			ID:        "researcher",
			Role:      "Senior Researcher",
			Goal:      "Find sources",
			Backstory: "Curious",
			Verbose:   true,
		}))
		Expect(agents[1].ID).To(Equal("analyst"))
	})
})

var _ = Describe("Load", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "crew-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("loads both files into a crew", func() {
		tasksPath := filepath.Join(tmpDir, "tasks.yaml")
		agentsPath := filepath.Join(tmpDir, "agents.yaml")
		Expect(os.WriteFile(tasksPath, []byte(tasksYAML), 0o600)).To(Succeed())
		Expect(os.WriteFile(agentsPath, []byte(agentsYAML), 0o600)).To(Succeed())

		c, err := crew.Load(tasksPath, agentsPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Empty()).To(BeFalse())
		Expect(c.Issues).To(HaveLen(3))

		t, ok := c.Task("analysis_task")
		Expect(ok).To(BeTrue())
		Expect(t.Agent).To(Equal("analyst"))

		a, ok := c.Agent("researcher")
		Expect(ok).To(BeTrue())
		Expect(a.Role).To(Equal("Senior Researcher"))

		_, ok = c.Task("nope")
		Expect(ok).To(BeFalse())
	})

	It("returns an empty crew for empty paths", func() {
		c, err := crew.Load("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Empty()).To(BeTrue())
	})

	It("returns an error for a missing file", func() {
		_, err := crew.Load(filepath.Join(tmpDir, "missing.yaml"), "")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("missing.yaml"))
	})
})

var _ = Describe("Clone", func() {
	It("does not share dependency slices", func() {
		c := crew.New([]crew.Task{{ID: "a", Dependencies: []string{"b"}}}, []crew.Agent{{ID: "x"}})
		clone := c.Clone()
		clone.Tasks[0].Dependencies[0] = "changed"
		clone.Agents[0].Role = "changed"

		Expect(c.Tasks[0].Dependencies[0]).To(Equal("b"))
		Expect(c.Agents[0].Role).To(BeEmpty())

		t, ok := clone.Task("a")
		Expect(ok).To(BeTrue())
		Expect(t.Dependencies).To(Equal([]string{"changed"}))
	})

	It("handles a nil crew", func() {
		var c *crew.Crew
		Expect(c.Clone().Empty()).To(BeTrue())
	})
})

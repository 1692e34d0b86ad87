package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/crewlog/cmd/crewlog/init"
	"github.com/papercomputeco/crewlog/pkg/config"
	"github.com/papercomputeco/crewlog/pkg/report"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "crewlog-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .crewlog directory in the current directory", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".crewlog"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates a config.toml with default values", func() {
		Expect(run()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Markers.Request).To(Equal("Request to litellm:"))
		Expect(cfg.Markers.Response).To(Equal("RAW RESPONSE:"))
		Expect(cfg.Report.GroupBy).To(Equal(report.GroupHint))
		Expect(cfg.Report.HintWidth).To(Equal(uint(report.DefaultHintWidth)))
	})

	It("succeeds when .crewlog directory already exists", func() {
		err := os.MkdirAll(filepath.Join(tmpDir, ".crewlog"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".crewlog"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("does not overwrite an existing config.toml without a preset", func() {
		dir := filepath.Join(tmpDir, ".crewlog")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

		existing := "[crew]\ntasks_path = \"mine.yaml\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(existing), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(existing))
	})

	It("keeps other files in an existing .crewlog directory", func() {
		dir := filepath.Join(tmpDir, ".crewlog")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

		dbFile := filepath.Join(dir, "crewlog.db")
		Expect(os.WriteFile(dbFile, []byte("db"), 0o644)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(dbFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("db"))
	})

	Describe("--preset with named presets", func() {
		It("creates config.toml with the crewai preset", func() {
			Expect(run("--preset", "crewai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Version).To(Equal(config.CurrentV))
			Expect(cfg.Crew.TasksPath).To(Equal(filepath.Join("config", "tasks.yaml")))
			Expect(cfg.Crew.AgentsPath).To(Equal(filepath.Join("config", "agents.yaml")))
			Expect(cfg.Report.GroupBy).To(Equal(report.GroupTask))
		})

		It("creates config.toml with the litellm preset", func() {
			Expect(run("--preset", "litellm")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Crew.TasksPath).To(BeEmpty())
			Expect(cfg.Markers.APIError).To(Equal("APIStatusError"))
		})

		It("rejects unknown preset names", func() {
			err := run("--preset", "invalid-provider")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))

			_, statErr := os.Stat(filepath.Join(tmpDir, ".crewlog"))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[crew]
tasks_path = "crew/tasks.yaml"
agents_path = "crew/agents.yaml"

[report]
group_by = "agent"

[pricing.models.gpt-4o]
prompt = 0.0000025
completion = 0.00001
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.Crew.TasksPath).To(Equal("crew/tasks.yaml"))
			Expect(cfg.Crew.AgentsPath).To(Equal("crew/agents.yaml"))
			Expect(cfg.Report.GroupBy).To(Equal(report.GroupAgent))
			Expect(cfg.Pricing.Models).To(HaveKey("gpt-4o"))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns error for unreachable URL", func() {
			err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})

	Describe("--preset overwrites config on re-init", func() {
		It("overwrites existing config.toml when re-running with a different preset", func() {
			Expect(run("--preset", "crewai")).To(Succeed())
			Expect(loadConfig(tmpDir).Report.GroupBy).To(Equal(report.GroupTask))

			Expect(run("--preset", "litellm")).To(Succeed())
			Expect(loadConfig(tmpDir).Report.GroupBy).To(Equal(report.GroupHint))
		})
	})
})

// loadConfig is a test helper that reads and parses the config.toml from the
// .crewlog directory within the given base directory.
func loadConfig(baseDir string) *config.Config {
	configPath := filepath.Join(baseDir, ".crewlog", "config.toml")
	data, err := os.ReadFile(configPath)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	err = toml.Unmarshal(data, cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}

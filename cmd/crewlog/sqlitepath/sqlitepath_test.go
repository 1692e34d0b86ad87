package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		origHome   string
		origXDG    string
		origSQLite string
		origCwd    string
		homeDir    string
		cwdDir     string
	)

	BeforeEach(func() {
		origHome = os.Getenv("HOME")
		origXDG = os.Getenv("XDG_DATA_HOME")
		origSQLite = os.Getenv("CREWLOG_SQLITE")
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		homeDir, err = os.MkdirTemp("", "crewlog-home-*")
		Expect(err).NotTo(HaveOccurred())
		cwdDir, err = os.MkdirTemp("", "crewlog-cwd-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Setenv("HOME", homeDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("CREWLOG_SQLITE", "")).To(Succeed())
		Expect(os.Chdir(cwdDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Setenv("HOME", origHome)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", origXDG)).To(Succeed())
		Expect(os.Setenv("CREWLOG_SQLITE", origSQLite)).To(Succeed())
		Expect(os.Chdir(origCwd)).To(Succeed())
		_ = os.RemoveAll(homeDir)
		_ = os.RemoveAll(cwdDir)
	})

	touch := func(path string) {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("test"), 0o644)).To(Succeed())
	}

	It("returns the override unchanged", func() {
		path, err := ResolveSQLitePath("explicit.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("explicit.db"))
	})

	It("prefers CREWLOG_SQLITE when set", func() {
		Expect(os.Setenv("CREWLOG_SQLITE", "/tmp/custom.db")).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("resolves ~/.crewlog/crewlog.db when present", func() {
		dbPath := filepath.Join(homeDir, ".crewlog", "crewlog.db")
		touch(dbPath)

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("prefers the XDG data dir over home", func() {
		xdg := filepath.Join(homeDir, "xdg")
		Expect(os.Setenv("XDG_DATA_HOME", xdg)).To(Succeed())

		touch(filepath.Join(homeDir, ".crewlog", "crewlog.db"))
		dbPath := filepath.Join(xdg, "crewlog", "crewlog.db")
		touch(dbPath)

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("falls back to the working directory", func() {
		touch(filepath.Join(cwdDir, "crewlog.db"))

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("crewlog.db"))
	})

	It("fails when nothing exists", func() {
		_, err := ResolveSQLitePath("")
		Expect(err).To(MatchError(ErrNotFound))
	})
})

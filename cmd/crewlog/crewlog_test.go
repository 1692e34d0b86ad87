package crewlogcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	crewlogcmder "github.com/papercomputeco/crewlog/cmd/crewlog"
)

var _ = Describe("NewCrewlogCmd", func() {
	It("registers every subcommand", func() {
		cmd := crewlogcmder.NewCrewlogCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("analyze", "graph", "extract", "runs", "config", "init", "version"))
	})

	It("has the global flags", func() {
		cmd := crewlogcmder.NewCrewlogCmd()
		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

package main

import (
	"context"
	"os"

	crewlogcmder "github.com/papercomputeco/crewlog/cmd/crewlog"
)

func main() {
	cmd := crewlogcmder.NewCrewlogCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// Package utils holds small helpers shared by crewlog packages that do not
// warrant a package of their own.
package utils

// Build metadata, stamped with
// -ldflags "-X github.com/papercomputeco/crewlog/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

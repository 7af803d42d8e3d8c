// Package common holds process-wide helpers shared by the binaries: build
// metadata and logger construction.
package common

var (
	// PackageName is used as the metrics namespace and the default service tag.
	PackageName = "tee_integrity"

	// Version is set at build time with -ldflags "-X ...common.Version=...".
	Version = "dev"
)

// Package version reports build information for dataflow binaries.
//
// Version, commit, branch and build time are set at compile time via
// -ldflags and fall back to the VCS stamps the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/dataflow/version.Version=1.0.0" ./cmd/dataflow
package version

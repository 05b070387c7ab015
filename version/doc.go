// Package version reports build information for rxhttp binaries.
//
// Version and GitCommit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/rxhttp/version.Version=1.2.0" ./cmd/rxget
//
// When they are left empty, Get falls back to the module and VCS data the
// Go toolchain embeds in the binary.
package version

// Package version reports the starschema build version.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/starschema/version.Version=1.0.0" ./cmd/starschema
package version

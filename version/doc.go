// Package version exposes build information for netclient binaries.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/kbukum/netclient/version.Version=1.2.0"
//
// and completed from the module's VCS stamp when absent.
package version

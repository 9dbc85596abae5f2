// Package version holds build information stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/ncom.report/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build information on one line.
func String() string {
	sha := GitSHA
	if len(sha) > 12 {
		sha = sha[:12]
	}
	return fmt.Sprintf("ncom %s (%s, built %s)", Version, sha, BuildTime)
}

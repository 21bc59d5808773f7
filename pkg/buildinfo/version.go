// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/tspart/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/tspart/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/tspart/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	// Set via ldflags: -X github.com/matzehuels/tspart/pkg/buildinfo.Version=...
	Version = "dev"

	// Commit is the git commit SHA.
	// Set via ldflags: -X github.com/matzehuels/tspart/pkg/buildinfo.Commit=...
	Commit = "none"

	// Date is the build timestamp.
	// Set via ldflags: -X github.com/matzehuels/tspart/pkg/buildinfo.Date=...
	Date = "unknown"
)

// Template returns the version template string for cobra. Development
// builds omit the commit and date.
func Template() string {
	if Commit == "none" {
		return fmt.Sprintf("{{.Name}} %s\n", Version)
	}
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, shortCommit(Commit), Date)
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

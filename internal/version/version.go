// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the release tag without the leading "v", or "dev".
	Version = "dev"

	// Commit is the short git SHA of the build.
	Commit = "none"

	// Date is the build timestamp (RFC3339).
	Date = "unknown"
)

// IsDev reports whether this is an unreleased local build.
func IsDev() bool {
	return Version == "dev"
}

// Full returns the string printed by `plates version`.
func Full() string {
	if IsDev() {
		return "plates dev (built from source)"
	}
	return fmt.Sprintf("plates %s (%s, %s)", Version, Commit, Date)
}

// UserAgent returns the User-Agent header sent with every API request.
func UserAgent() string {
	return "plates-cli/" + Version + " (+https://github.com/mzansiplatess/plates-cli)"
}

// Package build provides build information that is linked into the application. Other
// packages within this project can use this information in logs etc..
package build

var (
	// Version is the build version of the device runtime (e.g. v0.1.0).
	Version = "dev"

	// Commit is the sha of the git commit the runtime binary was built from.
	Commit = "none"

	// Date is the date the binary was built.
	Date = "unknown"

	// ProjectName is the name of the project; it is used as the namespace of
	// metrics and the prefix of environment variables.
	ProjectName = "xstream"
)

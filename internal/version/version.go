package version

// Version information
var (
	// Version is the current version of servicelog
	Version = "0.3.0-dev"
	// BuildDate is the date when the binary was built
	BuildDate = "undefined"
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "undefined"
)

// Name identifies this client to remote services.
const Name = "servicelog"

// VersionInfo returns formatted version information
func VersionInfo() string {
	return "ServiceLog version " + Version + " (build: " + BuildDate + ", commit: " + CommitHash + ")"
}

// UserAgent returns the User-Agent value sent with every outbound request,
// e.g. "servicelog/0.3.0".
func UserAgent() string {
	return Name + "/" + Version
}

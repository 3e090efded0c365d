package common

// Build metadata, overridden at link time via -ldflags.
var (
	version   = "0.1.0"
	build     = "dev"
	gitCommit = "unknown"
)

// GetVersion returns the semantic version.
func GetVersion() string {
	return version
}

// GetBuild returns the build identifier.
func GetBuild() string {
	return build
}

// GetGitCommit returns the git commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

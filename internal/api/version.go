package api

// Version information - these will be set at build time via ldflags
var (
	ResolverVersion = "dev"
	GitCommit       = "unknown"
	BuildTime       = "unknown"
)

// GetVersionInfo returns the current version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		ResolverVersion: ResolverVersion,
		GitCommit:       GitCommit,
		BuildTime:       BuildTime,
	}
}

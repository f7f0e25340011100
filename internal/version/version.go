package version

var (
	AppName     = "CraftWarden"
	AppFullName = "CraftWarden Discord Bridge Bot"

	// Overridden at build time via -ldflags.
	BuildDate = "unknown"
	GoVersion = "unknown"
)

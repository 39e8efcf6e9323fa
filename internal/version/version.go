package version

// Set at build time with
// -ldflags "-X github.com/claimstake/console/internal/version.Version=... -X github.com/claimstake/console/internal/version.Commit=..."
var (
	Version = "unknown"
	Commit  = "unknown"
)

func GetVersion() string {
	return Version
}

func GetCommit() string {
	return Commit
}

package config

import "fmt"

// Injected by the release build:
//
//	go build -ldflags "-X entityemailer/internal/config.version=2.4.0 \
//	    -X entityemailer/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X entityemailer/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    -o bootstrap ./cmd/entity-emailer
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linker-injected build metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// Release is the Sentry release name: entity-emailer@version, with the
// commit appended when the build recorded one.
func (b BuildInfo) Release() string {
	if b.Commit == "" || b.Commit == "none" {
		return fmt.Sprintf("entity-emailer@%s", b.Version)
	}
	return fmt.Sprintf("entity-emailer@%s+%s", b.Version, b.Commit)
}

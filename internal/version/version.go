package version

// Version is the current version of the bltcall CLI.
// This value can be overridden at build time using:
//
//	go build -ldflags="-X 'github.com/OWASP-BLT/BLT-sub001/internal/version.Version=v1.0.0'"
var Version = "dev"

// Package version holds the application version, overridden at build time with -ldflags.
package version

// Version is the application version.
var Version = "dev"

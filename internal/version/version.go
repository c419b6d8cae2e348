// Package version provides version information for awsgate.
package version

// Version is the current version of awsgate.
// Set at build time via: -ldflags "-X github.com/xdg/awsgate/internal/version.Version=v1.0.0"
var Version = "dev"

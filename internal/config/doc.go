// Package config defines the daemon settings and provides helpers to load,
// validate and save them in YAML format.
//
// Validate fills defaults for everything optional, so a file naming only the
// repository is a complete configuration for a standalone run.
package config

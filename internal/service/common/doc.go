// Package common holds helpers shared by several services.
//
// It provides a gRPC health client wrapper with timeouts and detection of the
// current system actor (hostname/username) for the administrative audit log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

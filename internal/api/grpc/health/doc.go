// Package health exposes the daemon readiness over the standard gRPC health
// checking protocol (grpc.health.v1).
//
// The serving status follows a probe that the daemon refreshes periodically,
// so load balancers and the status command see the same answer.
package health

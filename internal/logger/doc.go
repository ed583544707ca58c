// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities, including per-component
//     overrides (SetComponentLevels),
//   - convenience functions (InfoKV, ErrorKV, etc.),
//   - Named, which hands component loggers to domain objects that run outside
//     any request context (telemetry callbacks).
//
// All services accept a context and extract the logger from it, enabling
// scoped, structured logging throughout the codebase.
package logger

// Package protocol owns the GSPro Open Connect v1 wire contract.
//
// Ownership boundary:
// - shot/status/heartbeat message shapes and their flag semantics
// - response and player shapes
// - telemetry-to-message conversion
package protocol

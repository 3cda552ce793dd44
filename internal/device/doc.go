// Package device emulates GC2 launch-monitor transmission behavior.
//
// Ownership boundary:
// - fixed-size packet chunking with inter-packet timing
// - two-phase (early/final) shot emission sequencing
// - shot generation profiles and the simulator TCP server
package device

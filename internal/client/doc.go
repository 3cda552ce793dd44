// Package client owns the host side of the simulator connection.
//
// Ownership boundary:
// - connect/disconnect lifecycle and observer notification
// - the drain-send-read message exchange discipline
// - session state: shot numbering and cached player context
package client

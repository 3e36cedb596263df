// Package device tracks the power devices reported by the power
// management service and picks the one that represents overall system
// power state.
//
// A Registry owns every Record together with the Subscription that
// delivers the record's change notifications. A subscription lives
// exactly as long as its record: Remove and Clear revoke it before the
// record leaves the registry.
//
// The registry is not safe for concurrent use. It is meant to be owned
// by a single event loop.
package device

// Package host provides the Host upcall bundle implementations that
// package gossip depends on: a tick source, an RNG, a peer resolver and
// the application delivery callback. Processes never rely on a global
// registry to find each other; they go through this abstraction instead.
//
// SimClock is a discrete-event simulation host: it owns an explicit
// process registry and a seeded RNG, and advances Now() only when its
// owner calls Tick(). It is the deterministic host used by cmd/simulate;
// package gossip's own tests use a separate in-package test host.
//
// WallClock is a real-time host: Now() advances off the system clock,
// peer resolution is delegated to a pluggable Directory (backed by
// package discovery in production), and delivery/logging go through
// zap. It is what cmd/lpbcastd runs.
package host

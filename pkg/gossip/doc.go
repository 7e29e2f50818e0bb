// Package gossip implements the per-process state machine of a
// probabilistic broadcast (lpbcast-style) protocol: a bounded partial
// view of the membership, a periodic gossip round that exchanges
// fixed-size summaries of events, subscriptions and unsubscriptions with
// a random subset of known peers, and a staged recovery mechanism for
// events a process has heard about but not yet received.
//
// The package is host-agnostic: Process depends only on the small Host
// upcall bundle (tick source, RNG, peer resolution, delivery callback)
// defined in this package, never on a global registry. See package host
// for a discrete-event simulation host and a real-time host.
//
// Typical usage:
//
//	eng, _ := gossip.New(selfID, gossip.DefaultConfig(), host, initialView, time.Second)
//	eng.OnRound = func(p *gossip.Process) { p.LpbCast() } // runs on the ticking goroutine, serialized with Step
//	eng.Start()
//	defer eng.Stop()
//
// By default the package ships an in-process channel transport (for
// tests and simulation) and an HTTP transport (for production); either
// satisfies Transport, and swapping one for the other never touches
// membership or recovery logic.
package gossip

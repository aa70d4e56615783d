// Package greenroom is a local-and-remote actor runtime: isolated actors
// exchanging asynchronous messages, serial per-actor execution, supervision
// trees, routers, and a gRPC-based wire protocol for cross-process
// references (package remote).
//
// An actor is any type implementing Actor. It is instantiated by a
// Producer and driven by the System: every message addressed to it is
// delivered one at a time, in the order its mailbox releases them, so an
// actor never needs its own locking to protect state touched only from its
// own receive methods.
package greenroom

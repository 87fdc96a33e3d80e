// Package akm implements a per-relationship, event-driven state machine that
// establishes, rotates, and falls back between symmetric encryption keys
// shared among a small, fixed group of peer nodes.
//
// A Relationship observes events (frames received and tagged by the sender's
// system state, local decrypt failures, a local request to re-establish, and
// timer firings) and, in response, yields commands for the host to execute:
// install a key, switch active keys, retry a decrypt with an alternate key,
// arm or disarm a timer, and advertise the state this node should broadcast.
// All peers converge through a fixed sequence of establishment states and
// then settle into a steady established phase.
//
// Relationship is single-threaded and cooperative: the host calls Process,
// gets back at most one command, performs its side effect, and calls Process
// again. There is no internal goroutine and no internal locking.
package akm

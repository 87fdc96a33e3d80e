// akm-demo simulates a small group of peers converging on shared session
// keys using an in-process, channel-based stand-in for a transport.
//
// This binary does not open a socket: it builds N akm.Relationship
// instances, wires their OpSetSendEvent output into every other peer's
// inbox channel, and pumps a shared virtual clock until all peers reach
// Established or the tick budget runs out.
//
// Usage:
//
//	akm-demo [options]
//
// Options:
//
//	-peers  number of peers in the relationship (default: 4)
//	-ticks  maximum simulated ticks before giving up (default: 200)
package main

import (
	"flag"
	"log"

	"github.com/pion/logging"
)

func main() {
	peers := flag.Int("peers", 4, "number of peers in the relationship")
	ticks := flag.Int("ticks", 200, "maximum simulated ticks before giving up")
	flag.Parse()

	if *peers < 1 {
		log.Fatalf("peers must be >= 1")
	}

	sim, err := newSimulation(*peers, logging.NewDefaultLoggerFactory())
	if err != nil {
		log.Fatalf("failed to build simulation: %v", err)
	}

	if sim.run(*ticks) {
		log.Printf("all %d peers reached Established", *peers)
		return
	}
	log.Printf("tick budget exhausted before convergence")
}

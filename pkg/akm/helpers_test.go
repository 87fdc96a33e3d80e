package akm

import (
	"encoding/binary"
	"sort"
	"testing"
)

// addrBytes packs a list of uint16 node addresses into the raw little-endian
// byte form the package expects (2 bytes per address, ascending numeric
// order corresponds to ascending reverse-byte order).
func addrBytes(vals ...uint16) []byte {
	out := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

// testConfig builds a Config for a relationship of selfAddr plus peers, with
// large timing parameters so timeout-driven transitions never fire by
// accident in tests that don't exercise them.
func testConfig(selfAddr uint16, peers ...uint16) Config {
	all := append(append([]uint16{}, peers...), selfAddr)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	cfg := Config{
		Params: Params{
			N:     len(all),
			SRNA:  2,
			SK:    16,
			NNRT:  1_000_000_000,
			NSET:  1_000_000_000,
			FBSET: 1_000_000_000,
			FSSET: 1_000_000_000,
			CSS:   1, NSS: 2, SFSS: 3, NSFSS: 4, FSS: 5, NFSS: 6,
		},
		NodeAddresses:   addrBytes(all...),
		SelfNodeAddress: addrBytes(selfAddr),
	}
	for i := range cfg.PDV {
		cfg.PDV[i] = byte(i * 7)
	}
	return cfg
}

func newRel(t *testing.T, selfAddr uint16, peers ...uint16) *Relationship {
	t.Helper()
	r, err := New(testConfig(selfAddr, peers...))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

// prime runs the relationship's bootstrap continuation (cInit0) to
// completion, putting it in NormalEstablishing/SEI with the first
// SetTimer/SetSendEvent bookkeeping already flushed. Every scenario test
// starts from this known-clean baseline.
func prime(t *testing.T, r *Relationship, timeMs uint64) []Command {
	t.Helper()
	return drainReturn(t, r, timeMs, EventNone, nil)
}

// drainReturn feeds one event to Process, then keeps resuming with None
// until a Return is yielded, checking invariants after every call. It must
// only be used for event sequences that need no further host-supplied input
// (i.e. no RetryDec needing a follow-up Recv*/CannotDecrypt).
func drainReturn(t *testing.T, r *Relationship, timeMs uint64, ev Event, src []byte) []Command {
	t.Helper()
	cmds := []Command{r.Process(timeMs, ev, src)}
	checkInvariants(t, r)
	for cmds[len(cmds)-1].Opcode != OpReturn {
		cmds = append(cmds, r.Process(timeMs, EventNone, nil))
		checkInvariants(t, r)
		if len(cmds) > 64 {
			t.Fatalf("drainReturn: no Return after 64 commands, last=%+v", cmds[len(cmds)-1])
		}
	}
	return cmds
}

func opcodes(cmds []Command) []Opcode {
	out := make([]Opcode, len(cmds))
	for i, c := range cmds {
		out[i] = c.Opcode
	}
	return out
}

func checkInvariants(t *testing.T, r *Relationship) {
	t.Helper()

	// Invariant 1 (spec 8.1): decKey == decTryKey around every yield.
	if r.decKey != r.decTryKey {
		t.Fatalf("invariant: decKey=%v != decTryKey=%v", r.decKey, r.decTryKey)
	}

	// Invariant 2 (spec 8.2): relCounters.<flavour>.nodes[s] counts nodes
	// with at least one observation of s this round.
	flavours := []struct {
		name string
		rel  *relSubCounters
		sub  func(*nodeCounters) *nodeSubCounters
	}{
		{"normal", &r.relCounters.normal, func(nc *nodeCounters) *nodeSubCounters { return &nc.normal }},
		{"fallback", &r.relCounters.fallback, func(nc *nodeCounters) *nodeSubCounters { return &nc.fallback }},
	}
	for _, f := range flavours {
		for s := 0; s < numSysStates; s++ {
			want := 0
			for i := range r.nodeCounters {
				if f.sub(&r.nodeCounters[i]).cnts[s] >= 1 {
					want++
				}
			}
			if f.rel.nodes[s] != want {
				t.Fatalf("invariant: %s.nodes[%d] = %d, want %d", f.name, s, f.rel.nodes[s], want)
			}
			if f.rel.nodes[s] < 0 || f.rel.nodes[s] > len(r.nodeCounters) {
				t.Fatalf("invariant: %s.nodes[%d] = %d out of range [0,%d]", f.name, s, f.rel.nodes[s], len(r.nodeCounters))
			}
		}
	}

	// Invariant 4 (spec 8.4), range part only: selfIdx still indexes the
	// address list. This helper does not know the original self address.
	if r.selfIdx < 0 || r.selfIdx >= r.addrs.len() {
		t.Fatalf("invariant: selfIdx %d out of range", r.selfIdx)
	}
}

// checkSendEventInvariant asserts spec invariant 3: sendEvent == SE iff
// machState is Offline or Established. Only meaningful once a Process call
// has fully settled (yielded Return), since updateSendEvent is part of
// finalization.
func checkSendEventInvariant(t *testing.T, r *Relationship) {
	t.Helper()
	settled := r.machState == Offline || r.machState == Established
	if (r.sendEvent == SE) != settled {
		t.Fatalf("invariant: sendEvent=%v machState=%v (settled=%v)", r.sendEvent, r.machState, settled)
	}
}

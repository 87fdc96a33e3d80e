package akm

import "github.com/pion/logging"

// Config supplies everything a Relationship needs at construction time.
type Config struct {
	// Params holds the timing and sizing parameters for the relationship.
	Params Params

	// PDV is the 128-byte shared parameter data vector.
	PDV [PDVSize]byte

	// NodeAddresses is N*SRNA bytes: the sorted, strictly ascending (under
	// reverse-byte order), duplicate-free raw address of every peer,
	// including self.
	NodeAddresses []byte

	// SelfNodeAddress is this node's own SRNA-byte address; it must appear
	// in NodeAddresses.
	SelfNodeAddress []byte

	// LoggerFactory builds the scoped logger used for state transitions,
	// key rotation, peer removal, and fallback entry. Optional; nil disables
	// logging entirely.
	LoggerFactory logging.LoggerFactory
}

// Relationship is one peer group's key-establishment state machine. Exactly
// one Relationship exists per peer group; it is single-threaded and
// cooperative (see package doc).
type Relationship struct {
	selfIdx             int
	params              Params
	pdv                 [PDVSize]byte
	addrs               addrList
	lastRcv             []uint64
	relCounters         relCounters
	nodeCounters        []nodeCounters
	lastStateChangeTime uint64

	machState           MachState
	sysState            SysState
	encKey              Key
	decKey              Key
	decTryKey           Key
	sendOk              bool
	sendEvent           SysState
	recvFrameEvent      Event
	recvFrameSrcNodeIdx int

	nextTimeout             uint64
	validNextTimeout        bool
	skipTimeOutNodesRemoval bool
	skipTimeOutSched        bool

	yieldPending bool
	status       Status
	keyBuffer    []byte
	cont         contStack
	cmd          Command

	timeMs  uint64
	event   Event
	srcAddr []byte

	log logging.LeveledLogger
}

// New validates cfg and constructs a Relationship ready for its first
// Process call. It returns ErrFatalConfig for invalid params or a malformed
// address list, and ErrUnknownSource if SelfNodeAddress is not present in
// NodeAddresses.
func New(cfg Config) (*Relationship, error) {
	if !cfg.Params.Validate() {
		return nil, ErrFatalConfig
	}
	if len(cfg.NodeAddresses) != cfg.Params.N*cfg.Params.SRNA {
		return nil, ErrFatalConfig
	}
	if len(cfg.SelfNodeAddress) != cfg.Params.SRNA {
		return nil, ErrFatalConfig
	}
	if !isSortedNoDups(cfg.NodeAddresses, cfg.Params.N, cfg.Params.SRNA) {
		return nil, ErrFatalConfig
	}

	addrs := newAddrList(cfg.NodeAddresses, cfg.Params.SRNA)
	selfIdx := addrs.find(cfg.SelfNodeAddress)
	if selfIdx < 0 {
		return nil, ErrUnknownSource
	}

	r := &Relationship{
		selfIdx:              selfIdx,
		params:               cfg.Params.WithDefaults(),
		pdv:                  cfg.PDV,
		addrs:                addrs,
		lastRcv:              make([]uint64, cfg.Params.N),
		nodeCounters:         make([]nodeCounters, cfg.Params.N),
		keyBuffer:            make([]byte, cfg.Params.SK),
		machState:            Offline,
		recvFrameSrcNodeIdx:  -1,
		recvFrameEvent:       EventNone,
		status:               StatusSuccess,
	}
	if cfg.LoggerFactory != nil {
		r.log = cfg.LoggerFactory.NewLogger("akm")
	}
	r.cont.set(stepCInit0)
	return r, nil
}

// Process feeds one event (with its source address, if any) into the
// relationship at the given monotonic millisecond time, and drives
// continuations until exactly one command is yielded.
func (r *Relationship) Process(timeMs uint64, event Event, srcAddr []byte) Command {
	r.timeMs = timeMs
	r.event = event
	r.srcAddr = srcAddr
	for {
		r.runStep(r.cont.top())
		r.event = EventNone
		r.srcAddr = nil
		if r.yieldPending {
			break
		}
	}
	r.yieldPending = false
	return r.cmd
}

// Addresses returns a copy of the current sorted node address list.
func (r *Relationship) Addresses() []byte {
	out := make([]byte, len(r.addrs.data))
	copy(out, r.addrs.data)
	return out
}

// SelfAddress returns a copy of this node's own address.
func (r *Relationship) SelfAddress() []byte {
	addr := r.addrs.at(r.selfIdx)
	out := make([]byte, len(addr))
	copy(out, addr)
	return out
}

// N returns the current peer count, including self. It shrinks as silent
// peers are removed.
func (r *Relationship) N() int {
	return r.params.N
}

// Params returns the relationship's current params: those supplied to New,
// with zero timing fields filled in by WithDefaults, N reduced as silent
// peers are removed, and the seeds advanced by key regeneration.
func (r *Relationship) Params() Params {
	return r.params
}

// MachState returns the relationship's current machine state.
func (r *Relationship) MachState() MachState {
	return r.machState
}

func (r *Relationship) setCont(s step)  { r.cont.set(s) }
func (r *Relationship) pushCont(s step) { r.cont.push(s) }
func (r *Relationship) popCont()        { r.cont.pop() }

func (r *Relationship) yield(opcode Opcode, p1, p2 int, keyData []byte, instant uint64) {
	if r.yieldPending {
		panic("akm: yield called with a yield already pending")
	}
	r.yieldPending = true
	r.cmd = Command{Opcode: opcode, P1: p1, P2: p2, KeyData: keyData, Instant: instant}
}

func (r *Relationship) setRetStatus(status Status) {
	r.status = status
}

func (r *Relationship) yieldUseKeys(encKey, decKey Key) {
	r.decTryKey = decKey
	if r.encKey != encKey || r.decKey != decKey {
		r.encKey = encKey
		r.decKey = decKey
		if r.log != nil {
			r.log.Debugf("using keys enc=%s dec=%s", encKey, decKey)
		}
		r.yield(OpUseKeys, int(encKey), int(decKey), nil, 0)
	}
}

func (r *Relationship) yieldRetryDec(tryKey Key) {
	r.decTryKey = tryKey
	r.yield(OpRetryDec, int(tryKey), 0, nil, 0)
}

func (r *Relationship) findSrcNodeIdx() int {
	if r.srcAddr == nil {
		return -1
	}
	return r.addrs.find(r.srcAddr)
}

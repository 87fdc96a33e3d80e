package main

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/ashgrove/akm/pkg/akm"
)

// tickMillis is how far the virtual clock advances per simulation tick.
const tickMillis = 50

// frame is one peer's advertised system state, in flight to every other peer.
type frame struct {
	srcAddr byte
	event   akm.Event
}

// peer wraps one relationship with the bookkeeping the simulation needs to
// drive it: its inbox of inbound frames, its armed timer (if any), and the
// event it is currently advertising.
type peer struct {
	addr byte
	rel  *akm.Relationship
	log  logging.LeveledLogger

	inbox []frame

	timerArmed bool
	timerAt    uint64

	sendOk    bool
	sendEvent akm.Event
}

// simulation drives a fixed group of peers, all sharing one parameter data
// vector, to convergence without any real transport: each peer's advertised
// send-event is copied into every other peer's inbox on the following tick.
type simulation struct {
	peers  []*peer
	timeMs uint64
}

func newSimulation(n int, factory logging.LoggerFactory) (*simulation, error) {
	if n > 256 {
		return nil, fmt.Errorf("akm-demo: at most 256 peers supported, got %d", n)
	}

	addrs := make([]byte, n)
	for i := range addrs {
		addrs[i] = byte(i)
	}

	var pdv [akm.PDVSize]byte
	for i := range pdv {
		pdv[i] = byte(i * 31)
	}

	sim := &simulation{peers: make([]*peer, n)}
	for i := 0; i < n; i++ {
		cfg := akm.Config{
			Params: akm.Params{
				N:    n,
				SRNA: 1,
				SK:   16,
				CSS:  1,
				FSS:  1001,
			},
			PDV:             pdv,
			NodeAddresses:   addrs,
			SelfNodeAddress: []byte{addrs[i]},
			LoggerFactory:   factory,
		}
		rel, err := akm.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("akm-demo: peer %d: %w", addrs[i], err)
		}
		sim.peers[i] = &peer{
			addr: addrs[i],
			rel:  rel,
			log:  factory.NewLogger(fmt.Sprintf("peer%d", addrs[i])),
		}
	}
	return sim, nil
}

// run advances the simulation up to maxTicks times, returning true if every
// peer reached Established before the budget ran out.
func (s *simulation) run(maxTicks int) bool {
	for _, p := range s.peers {
		s.pump(p, akm.EventNone, nil)
	}

	for tick := 0; tick < maxTicks; tick++ {
		s.timeMs += tickMillis
		s.deliverInbox()

		if s.allEstablished() {
			return true
		}

		for _, p := range s.peers {
			s.driveTimeouts(p)
		}
	}
	return s.allEstablished()
}

func (s *simulation) allEstablished() bool {
	for _, p := range s.peers {
		if p.rel.MachState() != akm.Established {
			return false
		}
	}
	return true
}

// deliverInbox feeds every peer's queued frames in, then broadcasts whatever
// each peer is now advertising to every other peer's inbox for the next tick.
func (s *simulation) deliverInbox() {
	for _, p := range s.peers {
		inbox := p.inbox
		p.inbox = nil
		for _, f := range inbox {
			s.pump(p, f.event, []byte{f.srcAddr})
		}
	}

	for _, src := range s.peers {
		if !src.sendOk {
			continue
		}
		for _, dst := range s.peers {
			if dst == src {
				continue
			}
			dst.inbox = append(dst.inbox, frame{srcAddr: src.addr, event: src.sendEvent})
		}
	}
}

func (s *simulation) driveTimeouts(p *peer) {
	if p.timerArmed && s.timeMs >= p.timerAt {
		s.pump(p, akm.EventTimeOut, nil)
	}
}

// pump feeds one event into a peer, then keeps resuming it with EventNone
// and handling whatever command comes back, until the peer yields Return.
func (s *simulation) pump(p *peer, event akm.Event, srcAddr []byte) {
	cmd := p.rel.Process(s.timeMs, event, srcAddr)
	for {
		s.handle(p, cmd)
		if cmd.Opcode == akm.OpReturn {
			return
		}
		cmd = p.rel.Process(s.timeMs, akm.EventNone, nil)
	}
}

func (s *simulation) handle(p *peer, cmd akm.Command) {
	switch cmd.Opcode {
	case akm.OpUseKeys:
		p.log.Debugf("use keys enc=%s dec=%s", akm.Key(cmd.P1), akm.Key(cmd.P2))
	case akm.OpRetryDec:
		p.log.Debugf("would retry decrypt with %s", akm.Key(cmd.P1))
	case akm.OpSetKey:
		p.log.Tracef("installed %d bytes into %s", cmd.P2, akm.Key(cmd.P1))
	case akm.OpMoveKey:
		p.log.Tracef("moved %s <- %s", akm.Key(cmd.P1), akm.Key(cmd.P2))
	case akm.OpSetTimer:
		p.timerArmed = true
		p.timerAt = cmd.Instant
	case akm.OpResetTimer:
		p.timerArmed = false
	case akm.OpSetSendEvent:
		p.sendOk = cmd.P1 != 0
		p.sendEvent = akm.Event(cmd.P2)
	case akm.OpReturn:
		status := akm.Status(cmd.P1)
		if status != akm.StatusSuccess {
			p.log.Warnf("process returned %s", status)
		}
	}
}

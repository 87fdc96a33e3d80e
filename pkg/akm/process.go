package akm

// runStep executes one continuation by its step identifier.
func (r *Relationship) runStep(s step) {
	switch s {
	case stepCInit0:
		r.cInit0()
	case stepMain:
		r.cMain()
	case stepDoHandleRecvEv0:
		r.cDoHandleRecvEv0()
	case stepDoHandleRecvEv1:
		r.cDoHandleRecvEv1()
	case stepRetryDec:
		r.cRetryDec()
	case stepRetryDecTryFb:
		r.cRetryDecTryFb()
	case stepDoUseDecTryKeyAsDecKey:
		r.cDoUseDecTryKeyAsDecKey()
	case stepDoUseCSK:
		r.cDoUseKey(CSK)
	case stepDoUseNSK:
		r.cDoUseKey(NSK)
	case stepDoUseCFSK:
		r.cDoUseKey(CFSK)
	case stepDoUseNFSK:
		r.cDoUseKey(NFSK)
	case stepDoGenNSK:
		r.cDoGenNSK()
	case stepDoGenNFSK:
		r.cDoGenNFSK()
	case stepDoGenCFSK:
		r.cDoGenCFSK()
	case stepDoMoveNSKToCSK:
		r.cDoMoveNSKToCSK()
	case stepDoMoveNFSKToCSK:
		r.cDoMoveNFSKToCSK()
	case stepDoClearKeyBuffer:
		r.cDoClearKeyBuffer()
	case stepDoUpdateSendEvent:
		r.doUpdateSendEvent()
	default:
		panic("akm: unknown continuation step")
	}
}

// cInit0 is the first continuation run by a freshly constructed Relationship.
// It installs cMain as the steady-state continuation and kicks off the first
// normal-establishment round.
func (r *Relationship) cInit0() {
	r.setCont(stepMain)
	r.switchToNormalEstablishing()
}

// cMain dispatches on the event the caller supplied to Process.
func (r *Relationship) cMain() {
	switch r.event {
	case EventNone:
		r.handleProcFin()
	case EventRecvSE, EventRecvSEI, EventRecvSEC, EventRecvSEF:
		r.handleEvRecv()
	case EventCannotDecrypt:
		r.handleEvCannotDecrypt()
	case EventTimeOut:
		// No direct action; a TimeOut only ever clears the way for
		// handleProcFin on the next pump (event becomes EventNone).
	case EventLocalSEI:
		r.handleLocalSEI()
	}
}

// handleEvRecv processes a Recv* event according to the current machine state.
func (r *Relationship) handleEvRecv() {
	switch r.machState {
	case Offline:
		return
	case Established:
		if r.event == EventRecvSE {
			return
		}
		fallthrough
	case NormalEstablishing, FallbackEstablishing:
		r.recvFrameEvent = r.event
		r.recvFrameSrcNodeIdx = r.findSrcNodeIdx()
		r.pushCont(stepDoHandleRecvEv0)
	}
}

// handleLocalSEI starts a fresh normal-establishment round if the
// relationship is currently settled.
func (r *Relationship) handleLocalSEI() {
	if r.machState == Established {
		r.switchToNormalEstablishing()
	}
}

// cDoHandleRecvEv0 gives a pending local re-establishment request (if the
// relationship was Established) a chance to run before the receive itself is
// counted.
func (r *Relationship) cDoHandleRecvEv0() {
	r.setCont(stepDoHandleRecvEv1)
	r.handleLocalSEI()
}

// cDoHandleRecvEv1 records the sender's last-reception time and counts its
// reported state, or flags the Process call as UnknownSource if the sender's
// address could not be resolved.
func (r *Relationship) cDoHandleRecvEv1() {
	r.popCont()
	if r.recvFrameSrcNodeIdx < 0 {
		r.setRetStatus(StatusUnknownSource)
		return
	}
	r.lastRcv[r.recvFrameSrcNodeIdx] = r.timeMs
	r.countNodeState(r.recvFrameSrcNodeIdx, recvEventToSysState(r.recvFrameEvent))
}

// countNodeState folds one peer's observed system state into the per-node
// and relationship-wide counters, per the relation between the peer's
// reported state and this node's own current state.
func (r *Relationship) countNodeState(nodeIdx int, observed SysState) {
	self := r.sysState
	switch relationOf(self, observed) {
	case relPrev:
		if observed == SE {
			return
		}
		fallthrough
	case relSame:
		r.incrementNodeCnt(nodeIdx, observed)
	case relNext, relCross:
		r.incrementNodeCnt(nodeIdx, self)
		r.incrementNodeCnt(nodeIdx, self.Next())
	}
}

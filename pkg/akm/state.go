package akm

// updateState advances the self system state as far as the relationship-wide
// counters allow, running only while establishing (normal or fallback). Each
// full loop back around to SE triggers key regeneration for the active
// flavour; reaching SE with every peer already counted there settles the
// relationship into Established.
func (r *Relationship) updateState() {
	if r.machState != NormalEstablishing && r.machState != FallbackEstablishing {
		return
	}

	relCnts := r.relCounters.sub(r.machState)
	state := r.sysState
	for i := 0; i < numSysStates; i++ {
		if relCnts.nodes[state] < r.params.N {
			break
		}
		if state == SE {
			r.machState = Established
			r.resetCounters()
			if r.log != nil {
				r.log.Infof("relationship established")
			}
			break
		}
		state = state.Next()
		if state == SE {
			if r.machState == FallbackEstablishing {
				r.regenerateKeysDuringFallbackEstablishment()
			} else {
				r.regenerateKeysDuringNormalEstablishment()
			}
		}
	}

	if r.sysState != state {
		r.incrementNodeCnt(r.selfIdx, state)
		if state == SEC || state == SEF {
			if r.machState == FallbackEstablishing {
				r.pushCont(stepDoUseNFSK)
			} else {
				r.pushCont(stepDoUseNSK)
			}
		}
		if r.log != nil {
			r.log.Debugf("system state %s -> %s", r.sysState, state)
		}
		r.sysState = state
		r.lastStateChangeTime = r.timeMs
	}
}

// switchToNormalEstablishing resets all counters and starts a fresh
// normal-establishment round at SEI. A no-op if already in that state.
func (r *Relationship) switchToNormalEstablishing() {
	if r.machState == NormalEstablishing {
		return
	}
	r.resetCounters()
	r.machState = NormalEstablishing
	r.sysState = SEI
	r.lastStateChangeTime = r.timeMs
	r.setLastReceptionTimeForAllNodes()
	r.incrementNodeCnt(r.selfIdx, r.sysState)
}

// switchToFallbackEstablishing resets all counters and starts a fresh
// fallback-establishment round at SEI, immediately switching the active keys
// to the fallback pair. A no-op if already in that state.
func (r *Relationship) switchToFallbackEstablishing() {
	if r.machState == FallbackEstablishing {
		return
	}
	r.resetCounters()
	r.machState = FallbackEstablishing
	r.sysState = SEI
	r.lastStateChangeTime = r.timeMs
	r.incrementNodeCnt(r.selfIdx, r.sysState)
	if r.log != nil {
		r.log.Infof("entering fallback establishment")
	}
	r.yieldUseKeys(CFSK, CFSK)
}

func (r *Relationship) setLastReceptionTimeForAllNodes() {
	for i := range r.lastRcv {
		r.lastRcv[i] = r.timeMs
	}
}

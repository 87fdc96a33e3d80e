package akm

// removeTimedOutNodes drops every non-self peer that has been silent longer
// than NNRT. Guarded to run at most once per Process call.
func (r *Relationship) removeTimedOutNodes() {
	if r.skipTimeOutNodesRemoval {
		return
	}
	r.skipTimeOutNodesRemoval = true

	timeout := r.params.NNRT
	for i := 0; i < r.params.N; i++ {
		if i == r.selfIdx {
			continue
		}
		if r.timeMs-r.lastRcv[i] > timeout {
			r.removeNodeByIdx(i)
			i--
		}
	}
}

// removeNodeByIdx drops the peer at idx from the address list, reception
// times, and counters, adjusting selfIdx and the in-flight receive index to
// account for the shift.
func (r *Relationship) removeNodeByIdx(idx int) {
	if idx < 0 {
		return
	}
	if r.log != nil {
		r.log.Warnf("removing silent peer at index %d", idx)
	}
	r.uncountNodeByIdx(idx)
	r.addrs.removeAt(idx)
	r.lastRcv = append(r.lastRcv[:idx], r.lastRcv[idx+1:]...)
	r.nodeCounters = append(r.nodeCounters[:idx], r.nodeCounters[idx+1:]...)
	r.params.N--

	if idx < r.selfIdx {
		r.selfIdx--
	}
	if idx < r.recvFrameSrcNodeIdx {
		r.recvFrameSrcNodeIdx--
	} else if idx == r.recvFrameSrcNodeIdx {
		r.recvFrameSrcNodeIdx = -1
	}
}

func (r *Relationship) uncountNodeByIdx(idx int) {
	nc := &r.nodeCounters[idx]
	uncountNodeSubCounters(&r.relCounters.normal, &nc.normal)
	uncountNodeSubCounters(&r.relCounters.fallback, &nc.fallback)
}

func uncountNodeSubCounters(relCnts *relSubCounters, nodeCnts *nodeSubCounters) {
	for i := 0; i < numSysStates; i++ {
		if nodeCnts.cnts[i] != 0 {
			relCnts.nodes[i]--
		}
	}
}

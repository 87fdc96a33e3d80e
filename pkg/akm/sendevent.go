package akm

// checkUpdateSendEvent computes the (sendOk, sendEvent) pair this node
// should currently be advertising: sendOk is false only while Offline;
// sendEvent is the current system state while establishing, or SE once
// settled or before the first round starts.
func (r *Relationship) checkUpdateSendEvent() (sendOk bool, sendEvent SysState) {
	sendOk = r.machState != Offline
	if r.machState != Offline && r.machState != Established {
		sendEvent = r.sysState
	} else {
		sendEvent = SE
	}
	return sendOk, sendEvent
}

// updateSendEvent pushes a deferred yield if the advertised event needs to
// change from what was last emitted.
func (r *Relationship) updateSendEvent() {
	sendOk, sendEvent := r.checkUpdateSendEvent()
	if sendOk != r.sendOk || sendEvent != r.sendEvent {
		r.pushCont(stepDoUpdateSendEvent)
	}
}

// doUpdateSendEvent yields SetSendEvent and records the newly emitted pair.
func (r *Relationship) doUpdateSendEvent() {
	r.popCont()
	sendOk, sendEvent := r.checkUpdateSendEvent()
	sendOkInt := 0
	if sendOk {
		sendOkInt = 1
	}
	r.yield(OpSetSendEvent, sendOkInt, int(sysStateToRecvEvent(sendEvent)), nil, 0)
	r.sendOk = sendOk
	r.sendEvent = sendEvent
}

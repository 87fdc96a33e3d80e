package akm

// handleEvCannotDecrypt reacts to a local decrypt failure by choosing an
// alternate key to retry, or by recording a fallback decrypt failure when no
// further retry is available for the current state.
func (r *Relationship) handleEvCannotDecrypt() {
	switch r.machState {
	case Offline:
		r.setRetStatus(StatusFatalError)
	case Established:
		r.retryWithFallbackKey()
	case NormalEstablishing:
		switch r.sysState {
		case SEI, SEC:
			r.pushCont(stepRetryDec)
			tryKey := NSK
			if r.decKey == NSK {
				tryKey = CSK
			}
			r.yieldRetryDec(tryKey)
		default:
			r.retryWithFallbackKey()
		}
	case FallbackEstablishing:
		switch r.sysState {
		case SEI, SEC:
			r.pushCont(stepRetryDec)
			tryKey := NFSK
			if r.decKey == NFSK {
				tryKey = CFSK
			}
			r.yieldRetryDec(tryKey)
		default:
			r.handleCannotDecryptFin()
		}
	}
}

func (r *Relationship) retryWithFallbackKey() {
	r.pushCont(stepRetryDecTryFb)
	r.yieldRetryDec(CFSK)
}

// handleCannotDecryptFin records a decrypt failure for the current flavour
// and resyncs decTryKey back to decKey, restoring the on-yield invariant
// that the two always agree.
func (r *Relationship) handleCannotDecryptFin() {
	r.relCounters.sub(r.machState).decryptFails++
	r.decTryKey = r.decKey
}

// cRetryDec handles the host's response to an opposite-key retry issued
// from the SEI/SEC paths above, in normal or fallback establishment.
func (r *Relationship) cRetryDec() {
	r.popCont()
	switch r.event {
	case EventRecvSE, EventRecvSEI, EventRecvSEC, EventRecvSEF:
		r.pushCont(stepDoUseDecTryKeyAsDecKey)
		r.handleEvRecv()
	case EventCannotDecrypt:
		if r.machState == FallbackEstablishing {
			r.handleCannotDecryptFin()
		} else {
			r.pushCont(stepRetryDecTryFb)
			r.yieldRetryDec(CFSK)
		}
	default:
		r.setRetStatus(StatusFatalError)
	}
}

// cRetryDecTryFb handles the host's response to a fallback-key retry.
func (r *Relationship) cRetryDecTryFb() {
	r.popCont()
	switch r.event {
	case EventRecvSE, EventRecvSEI, EventRecvSEC, EventRecvSEF:
		r.switchToFallbackEstablishing()
		r.handleEvRecv()
	case EventCannotDecrypt:
		r.handleCannotDecryptFin()
	default:
		r.setRetStatus(StatusFatalError)
	}
}

// cDoUseDecTryKeyAsDecKey promotes the key that successfully decrypted a
// retried frame into the persistent decrypt key.
func (r *Relationship) cDoUseDecTryKeyAsDecKey() {
	r.popCont()
	r.yieldUseKeys(r.encKey, r.decTryKey)
}

// cDoUseKey installs key as both the active encrypt and decrypt key.
func (r *Relationship) cDoUseKey(key Key) {
	r.popCont()
	r.yieldUseKeys(key, key)
}

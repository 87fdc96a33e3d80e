package akm

// cDoGenNSK derives the next session key from CSS, advances NSS to the seed
// derived from the digest, and yields SetKey(NSK, ...).
func (r *Relationship) cDoGenNSK() {
	r.popCont()
	newSeed := processRandomDataSet(r.pdv, r.params.CSS, r.keyBuffer)
	r.params.NSS = newSeed
	if r.log != nil {
		r.log.Tracef("generated NSK")
	}
	r.yield(OpSetKey, int(NSK), r.params.SK, r.keyBuffer, 0)
}

// cDoGenNFSK derives the next fallback-session key from FSS, advances NFSS,
// and yields SetKey(NFSK, ...).
func (r *Relationship) cDoGenNFSK() {
	r.popCont()
	newSeed := processRandomDataSet(r.pdv, r.params.FSS, r.keyBuffer)
	r.params.NFSS = newSeed
	if r.log != nil {
		r.log.Tracef("generated NFSK")
	}
	r.yield(OpSetKey, int(NFSK), r.params.SK, r.keyBuffer, 0)
}

// cDoGenCFSK derives a fresh current-fallback-session key from SFSS,
// advances FSS, and yields SetKey(CFSK, ...). Only reached during the
// fallback key-regeneration pipeline.
func (r *Relationship) cDoGenCFSK() {
	r.popCont()
	newSeed := processRandomDataSet(r.pdv, r.params.SFSS, r.keyBuffer)
	r.params.FSS = newSeed
	if r.log != nil {
		r.log.Tracef("generated CFSK")
	}
	r.yield(OpSetKey, int(CFSK), r.params.SK, r.keyBuffer, 0)
}

// cDoMoveNSKToCSK promotes last round's next-session key to current, and
// rolls CSS forward to NSS.
func (r *Relationship) cDoMoveNSKToCSK() {
	r.popCont()
	r.yield(OpMoveKey, int(CSK), int(NSK), nil, 0)
	r.params.CSS = r.params.NSS
}

// cDoMoveNFSKToCSK promotes last round's next-fallback-session key to
// current, entering the next round with CSS/SFSS/NSFSS rolled forward from
// the fallback seed family.
func (r *Relationship) cDoMoveNFSKToCSK() {
	r.popCont()
	r.yield(OpMoveKey, int(CSK), int(NFSK), nil, 0)
	r.params.CSS = r.params.NFSS
	r.params.SFSS = r.params.NSFSS
	r.params.NSFSS = r.params.FSS
}

// cDoClearKeyBuffer zeroes the transient scratch buffer used by cDoGen*.
func (r *Relationship) cDoClearKeyBuffer() {
	r.popCont()
	for i := range r.keyBuffer {
		r.keyBuffer[i] = 0
	}
}

// regenerateKeysDuringNormalEstablishment pushes the normal-round key
// rotation pipeline. Continuations run in LIFO order, so this yields, in
// order: MoveKey(CSK<-NSK), UseKeys(CSK,CSK), SetKey(NSK,...),
// SetKey(NFSK,...), then clears the scratch buffer.
func (r *Relationship) regenerateKeysDuringNormalEstablishment() {
	r.pushCont(stepDoClearKeyBuffer)
	r.pushCont(stepDoGenNFSK)
	r.pushCont(stepDoGenNSK)
	r.pushCont(stepDoUseCSK)
	r.pushCont(stepDoMoveNSKToCSK)
}

// regenerateKeysDuringFallbackEstablishment pushes the deeper fallback-round
// pipeline: MoveKey(CSK<-NFSK), UseKeys(CSK,CSK), SetKey(CFSK,...),
// SetKey(NSK,...), SetKey(NFSK,...), then clears the scratch buffer.
func (r *Relationship) regenerateKeysDuringFallbackEstablishment() {
	r.pushCont(stepDoClearKeyBuffer)
	r.pushCont(stepDoGenNFSK)
	r.pushCont(stepDoGenNSK)
	r.pushCont(stepDoGenCFSK)
	r.pushCont(stepDoUseCSK)
	r.pushCont(stepDoMoveNFSKToCSK)
}

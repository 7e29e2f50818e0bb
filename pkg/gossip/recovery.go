package gossip

// Recovery is a three-stage retry state machine per missing event,
// balancing locality (ask the peer that told us) against correctness
// under sender failure (escalate to a random peer, then the origin).
//
// This file's structure is grounded on the teacher's own
// failure_detector.go: a per-key last-seen tick drives a timeout-based
// state transition, the same shape as a phi-accrual detector's
// heartbeat tracking, repurposed here for retransmission timeouts
// instead of liveness suspicion.

// retrieveMissingMessages runs once per Step before the gossip round. It
// first advances any already-active requests whose stage timeout has
// elapsed, then promotes eligible retrieve entries into new
// ActiveRetrieveRequests.
func (p *Process) retrieveMissingMessages(now int64) {
	p.updateActiveRetrieveRequests(now)

	for id, me := range p.retrieve {
		if now-me.DiscoveredAt <= p.config.KRecovery {
			continue
		}
		if !p.hasEventID(me.EventID) {
			if _, active := p.activeRetrieveRequest[me.EventID]; !active {
				if peer, ok := p.host.Resolve(me.ObservedFrom); ok {
					peer.Receive(RetrieveRequestMessage(p.id, me.EventID))
				}
				p.activeRetrieveRequest[me.EventID] = &ActiveRetrieveRequest{
					EventID: me.EventID,
					SentAt:  now,
					Stage:   StageSender,
				}
				p.reportStageChange(StageSender)
			}
		}
		delete(p.retrieve, id)
	}
}

// updateActiveRetrieveRequests advances requests whose stage timeout has
// elapsed. view must be non-empty to advance from SENDER to RANDOM; if
// it is empty, RANDOM is skipped and the request escalates straight to
// ORIGINATOR.
func (p *Process) updateActiveRetrieveRequests(now int64) {
	for id, ar := range p.activeRetrieveRequest {
		if now-ar.SentAt < p.config.RecoveryTimeout {
			continue
		}
		switch ar.Stage {
		case StageSender:
			if len(p.view) > 0 {
				target := p.randomViewMember()
				if peer, ok := p.host.Resolve(target); ok {
					peer.Receive(RetrieveRequestMessage(p.id, ar.EventID))
				}
				ar.Stage = StageRandom
			} else {
				if peer, ok := p.host.Resolve(ar.EventID.Origin); ok {
					peer.Receive(RetrieveRequestMessage(p.id, ar.EventID))
				}
				ar.Stage = StageOriginator
			}
			ar.SentAt = now
			p.reportStageChange(ar.Stage)
		case StageRandom:
			if peer, ok := p.host.Resolve(ar.EventID.Origin); ok {
				peer.Receive(RetrieveRequestMessage(p.id, ar.EventID))
			}
			ar.Stage = StageOriginator
			ar.SentAt = now
			p.reportStageChange(ar.Stage)
		case StageOriginator:
			delete(p.activeRetrieveRequest, id)
			p.reportStageChange(StageOriginator)
		}
	}
}

// reportStageChange invokes the optional telemetry hook, if installed.
func (p *Process) reportStageChange(stage RetrieveStage) {
	if p.onRecoveryStageChange != nil {
		p.onRecoveryStageChange(stage)
	}
}

// randomViewMember returns a uniformly random peer from view. Caller
// must ensure view is non-empty.
func (p *Process) randomViewMember() ProcessID {
	keys := make([]ProcessID, 0, len(p.view))
	for k := range p.view {
		keys = append(keys, k)
	}
	return keys[p.host.RandIntn(0, len(keys)-1)]
}

package gossip

// Tracks a process's bounded view of the membership: the view and subs
// frequency tables and the unSubs admission-tick table. Unlike an
// alive/suspect/dead member list, lpbcast never marks a peer's liveness -
// it only tracks how often a ProcessID has been seen (for frequency-biased
// eviction) or that it was recently told to leave (for unSubs).

// mergeSub folds a subscription announcement into view and subs. s must
// already be known to differ from self and to be absent from unSubs -
// the caller skips any s still recorded there so a peer cannot be
// re-admitted through a subscription entry in the same message that
// unsubscribed it.
func (p *Process) mergeSub(s ProcessID) {
	if _, ok := p.view[s]; !ok {
		p.view[s] = 0
	}
	p.view[s]++

	if _, ok := p.subs[s]; !ok {
		p.subs[s] = 0
	}
	p.subs[s]++
}

// applyUnsub removes u from view/subs and admits it into unSubs if it
// isn't already present.
func (p *Process) applyUnsub(u ProcessID, now int64) {
	delete(p.view, u)
	delete(p.subs, u)
	if _, ok := p.unSubs[u]; !ok {
		p.unSubs[u] = now
	}
}

// trimUnSubs first drops expired entries, then randomly evicts until
// the cap is satisfied. Each buffer's purge routine is independent;
// this one never reaches into another buffer to make room.
func (p *Process) trimUnSubs(now int64) {
	if len(p.unSubs) <= p.config.UnsubsMax {
		return
	}
	for id, admitted := range p.unSubs {
		if admitted+p.config.UnsubsValidity <= now {
			delete(p.unSubs, id)
		}
	}
	for len(p.unSubs) > p.config.UnsubsMax {
		target := p.selectFromUnsubs()
		delete(p.unSubs, target)
	}
}

// trimView evicts a process from view while over cap, demoting it into
// subs for re-propagation.
func (p *Process) trimView() {
	for len(p.view) > p.config.ViewMax {
		target := p.selectProcess(p.view)
		freq := p.view[target]
		delete(p.view, target)
		p.subs[target] = freq
	}
}

// trimSubs evicts a process from subs outright while over cap.
func (p *Process) trimSubs() {
	for len(p.subs) > p.config.SubsMax {
		target := p.selectProcess(p.subs)
		delete(p.subs, target)
	}
}

// selectProcess does frequency-biased random eviction when
// FrequencyBasedMembershipPurging is enabled, else uniform random choice.
// Termination: K < 1 guarantees any key eventually exceeds K*avg after
// enough increments, so the loop terminates with probability 1.
func (p *Process) selectProcess(buffer map[ProcessID]int) ProcessID {
	keys := make([]ProcessID, 0, len(buffer))
	for k := range buffer {
		keys = append(keys, k)
	}

	if !p.config.FrequencyBasedMembershipPurging {
		return keys[p.host.RandIntn(0, len(keys)-1)]
	}

	var sum int
	for _, v := range buffer {
		sum += v
	}
	avg := 0.0
	if len(buffer) > 0 {
		avg = float64(sum) / float64(len(buffer))
	}

	for {
		target := keys[p.host.RandIntn(0, len(keys)-1)]
		if float64(buffer[target]) > p.config.K*avg {
			return target
		}
		buffer[target]++
	}
}

// selectFromUnsubs mirrors selectProcess for the int64-valued unSubs
// table (admission ticks, not frequencies) - trimUnSubs's second phase
// is always uniform random.
func (p *Process) selectFromUnsubs() ProcessID {
	keys := make([]ProcessID, 0, len(p.unSubs))
	for k := range p.unSubs {
		keys = append(keys, k)
	}
	return keys[p.host.RandIntn(0, len(keys)-1)]
}

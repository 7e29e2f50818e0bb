package gossip

// gossip assembles and sends one gossip round, performed once per tick
// when the process is not unsubscribed.
func (p *Process) gossip(now int64) {
	p.mu.Lock()
	departing := p.unsubscriptionRequested
	p.mu.Unlock()

	for id, e := range p.events {
		e.Age++
		p.events[id] = e
	}

	gossipSubs := make([]ProcessID, 0, len(p.subs)+1)
	for s := range p.subs {
		gossipSubs = append(gossipSubs, s)
	}
	if !departing {
		gossipSubs = append(gossipSubs, p.id)
	} else {
		p.unSubs[p.id] = now
	}

	gossipUnsubs := make([]ProcessID, 0, len(p.unSubs))
	for u := range p.unSubs {
		gossipUnsubs = append(gossipUnsubs, u)
	}

	// Deep-cloned snapshots: Event and EventID are plain value types, so
	// a fresh slice copy is sufficient - no shared mutable storage can
	// leak to recipients mutating Age.
	gossipEvents := make([]Event, 0, len(p.events))
	for _, e := range p.events {
		gossipEvents = append(gossipEvents, e)
	}
	gossipEventIDs := make([]EventID, len(p.eventIds))
	copy(gossipEventIDs, p.eventIds)

	msg := GossipMessage(p.id, gossipEvents, gossipSubs, gossipUnsubs, gossipEventIDs)

	for _, target := range p.selectGossipTargets() {
		if peer, ok := p.host.Resolve(target); ok {
			peer.Receive(msg)
		}
	}

	// Rotate: every current event moves into the archive.
	for id, e := range p.events {
		p.archivedEvents[id] = archivedEntry{Event: e, AdmittedAt: now}
	}
	p.events = make(map[EventID]Event)
	p.trimArchivedEvents()

	if departing {
		p.depart()
	}
}

// selectGossipTargets picks n = min(F, |view|) distinct peers, sampled
// uniformly by rejection sampling over the view's keys: a draw that
// repeats an already-chosen peer is discarded and redrawn, and sampling
// stops once n peers are chosen or every view member has been chosen.
func (p *Process) selectGossipTargets() []ProcessID {
	n := p.config.F
	if len(p.view) < n {
		n = len(p.view)
	}
	if n == 0 {
		return nil
	}

	keys := make([]ProcessID, 0, len(p.view))
	for k := range p.view {
		keys = append(keys, k)
	}

	chosen := make(map[ProcessID]struct{}, n)
	targets := make([]ProcessID, 0, n)
	for len(targets) < n && len(chosen) < len(keys) {
		k := keys[p.host.RandIntn(0, len(keys)-1)]
		if _, dup := chosen[k]; dup {
			continue
		}
		chosen[k] = struct{}{}
		targets = append(targets, k)
	}
	return targets
}

// depart clears all buffers and enters the quiescent state.
func (p *Process) depart() {
	p.view = make(map[ProcessID]int)
	p.subs = make(map[ProcessID]int)
	p.unSubs = make(map[ProcessID]int64)
	p.events = make(map[EventID]Event)
	p.eventIds = nil
	p.eventIDSet = make(map[EventID]struct{})
	p.archivedEvents = make(map[EventID]archivedEntry)
	p.retrieve = make(map[EventID]MissingEvent)
	p.activeRetrieveRequest = make(map[EventID]*ActiveRetrieveRequest)

	p.mu.Lock()
	p.receivedMessages = nil
	p.isUnsubscribed = true
	p.unsubscriptionRequested = false
	p.mu.Unlock()
}

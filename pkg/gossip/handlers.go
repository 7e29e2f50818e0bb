package gossip

// gossipHandler folds an inbound gossip summary into local state. The
// four stages run in the fixed order - unsubs, then subs, then events,
// then gap detection - precisely so that a peer named in both Unsubs and
// Subs of the same message stays unsubscribed: unSubs wins, and a
// ProcessId is never in both view and unSubs once this returns.
func (p *Process) gossipHandler(msg Message, now int64) {
	// (a) apply unsubscriptions
	for _, u := range msg.Unsubs {
		p.applyUnsub(u, now)
	}
	p.trimUnSubs(now)

	// (b) merge subscriptions
	for _, s := range msg.Subs {
		if s == p.id {
			continue
		}
		if _, unsubscribed := p.unSubs[s]; unsubscribed {
			continue
		}
		p.mergeSub(s)
	}
	p.trimView()
	p.trimSubs()

	// (c) merge events
	for _, e := range msg.Events {
		p.processEvent(e)
	}
	p.trimEvents(now)

	// (d) detect gaps
	for _, eid := range msg.EventIDs {
		if p.hasEventID(eid) {
			continue
		}
		if _, pending := p.retrieve[eid]; pending {
			continue
		}
		p.retrieve[eid] = MissingEvent{
			EventID:      eid,
			DiscoveredAt: now,
			ObservedFrom: msg.Sender,
		}
	}
	p.trimEventIds()
}

// retrieveRequestHandler answers a RetrieveRequest. It replies with at
// most one match: events is checked before archivedEvents, and the
// handler returns on the first hit rather than risking a double reply.
func (p *Process) retrieveRequestHandler(msg Message) {
	peer, ok := p.host.Resolve(msg.Sender)
	if !ok {
		return
	}
	if e, found := p.events[msg.EventID]; found {
		peer.Receive(RetrieveReplyMessage(p.id, e))
		return
	}
	if entry, found := p.archivedEvents[msg.EventID]; found {
		peer.Receive(RetrieveReplyMessage(p.id, entry.Event))
	}
}

// retrieveReplyHandler admits the replied event and clears any matching
// outstanding request.
func (p *Process) retrieveReplyHandler(msg Message, now int64) {
	delete(p.activeRetrieveRequest, msg.Event.ID)
	p.processEvent(msg.Event)
	p.trimEvents(now)
}

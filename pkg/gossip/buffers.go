package gossip

// Bounded event storage: the current-round events set, the FIFO eventIds
// delivery log, and the archivedEvents retransmission pool. Modeled on
// the teacher's pkg/kv eviction pattern (a map plus a side index, purged
// under capacity pressure) but adapted from byte-capacity LRU to
// count-capacity age/FIFO eviction - eventIds never needs move-to-front,
// only head-drop and membership tests, so a plain slice replaces the
// teacher's container/list.

type archivedEntry struct {
	Event     Event
	AdmittedAt int64
}

// processEvent admits an event's first delivery into events and
// eventIds and invokes Host.Deliver; every subsequent arrival of the
// same EventID only ratchets its age upward, so that purge decisions stay
// consistent no matter which path an event arrived by.
func (p *Process) processEvent(e Event) {
	if _, delivered := p.eventIDSet[e.ID]; !delivered {
		p.events[e.ID] = e
		p.host.Deliver(p.id, e)
		p.eventIds = append(p.eventIds, e.ID)
		p.eventIDSet[e.ID] = struct{}{}
		return
	}
	if existing, ok := p.events[e.ID]; ok && existing.Age < e.Age {
		existing.Age = e.Age
		p.events[e.ID] = existing
	}
}

// trimEvents is the two-stage events purge: age-based freshness pruning
// per origin, then oldest-first eviction into the archive.
func (p *Process) trimEvents(now int64) {
	if p.config.AgeBasedMessagePurging {
		p.trimEventsByAge()
		for len(p.events) > p.config.EventsMax {
			p.archiveOldestEvent(now)
		}
	} else {
		for len(p.events) > p.config.EventsMax {
			p.archiveRandomEvent(now)
		}
	}
	p.trimArchivedEvents()
}

// trimEventsByAge removes, for every origin, events that are more than
// LongAgo hops behind the freshest event from that same origin - stage A
// of the events purge.
func (p *Process) trimEventsByAge() {
	if len(p.events) <= p.config.EventsMax {
		return
	}
	toRemove := make(map[EventID]struct{})
	for _, e := range p.events {
		for _, c := range p.events {
			if c.ID.Origin == e.ID.Origin && c.Age-e.Age > p.config.LongAgo {
				toRemove[e.ID] = struct{}{}
				break
			}
		}
	}
	for id := range toRemove {
		delete(p.events, id)
	}
}

// archiveOldestEvent evicts the single largest-age event into
// archivedEvents - stage B of the events purge.
func (p *Process) archiveOldestEvent(now int64) {
	var oldestID EventID
	var oldest Event
	first := true
	for id, e := range p.events {
		if first || e.Age > oldest.Age {
			oldestID, oldest, first = id, e, false
		}
	}
	if first {
		return
	}
	delete(p.events, oldestID)
	p.archivedEvents[oldestID] = archivedEntry{Event: oldest, AdmittedAt: now}
}

// archiveRandomEvent is the unoptimized fallback when AgeBasedMessagePurging
// is disabled: evict a uniformly random event.
func (p *Process) archiveRandomEvent(now int64) {
	ids := make([]EventID, 0, len(p.events))
	for id := range p.events {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	target := ids[p.host.RandIntn(0, len(ids)-1)]
	e := p.events[target]
	delete(p.events, target)
	p.archivedEvents[target] = archivedEntry{Event: e, AdmittedAt: now}
}

// trimArchivedEvents evicts the oldest (smallest AdmittedAt) entry until
// back under cap.
func (p *Process) trimArchivedEvents() {
	for len(p.archivedEvents) > p.config.ArchivedMax {
		var oldestID EventID
		var oldest int64
		first := true
		for id, entry := range p.archivedEvents {
			if first || entry.AdmittedAt < oldest {
				oldestID, oldest, first = id, entry.AdmittedAt, false
			}
		}
		if first {
			return
		}
		delete(p.archivedEvents, oldestID)
	}
}

// trimEventIds drops from the head of the FIFO eventIds log while over cap.
func (p *Process) trimEventIds() {
	for len(p.eventIds) > p.config.EventIDsMax {
		dropped := p.eventIds[0]
		p.eventIds = p.eventIds[1:]
		delete(p.eventIDSet, dropped)
	}
}

// hasEventID reports whether an EventID has already been recorded in
// eventIds (i.e. already delivered).
func (p *Process) hasEventID(id EventID) bool {
	_, ok := p.eventIDSet[id]
	return ok
}

package gossip

import "sync"

// Host is the upcall bundle a Process needs from its environment: a tick
// source, an RNG, a peer resolver and the application delivery callback.
// Implementations live in package host; Process never assumes a global
// registry.
type Host interface {
	// Now returns the current tick.
	Now() int64
	// RandIntn returns a uniformly random integer in [lo, hi] inclusive.
	RandIntn(lo, hi int) int
	// Resolve looks up a process by id. ok is false if the process has
	// left the system; sends to it are then a silent no-op.
	Resolve(id ProcessID) (Peer, bool)
	// Deliver is the application-level upcall invoked the first time an
	// event is locally delivered.
	Deliver(self ProcessID, e Event)
}

// Peer is anything a Process can hand a Message to.
type Peer interface {
	Receive(msg Message)
}

type inboundMessage struct {
	msg       Message
	deliverAt int64
}

// Process is the per-process lpbcast protocol state machine. Its buffers
// are mutated by Step, LpbCast and Subscribe, which callers must
// serialize; Receive, Unsubscribe and IsUnsubscribed are safe to call
// from other goroutines.
type Process struct {
	id     ProcessID
	config Config
	host   Host

	view   map[ProcessID]int
	subs   map[ProcessID]int
	unSubs map[ProcessID]int64

	events         map[EventID]Event
	eventIds       []EventID
	eventIDSet     map[EventID]struct{}
	archivedEvents map[EventID]archivedEntry

	retrieve              map[EventID]MissingEvent
	activeRetrieveRequest map[EventID]*ActiveRetrieveRequest

	mu               sync.Mutex
	receivedMessages []inboundMessage

	isUnsubscribed          bool
	unsubscriptionRequested bool

	onRecoveryStageChange func(stage RetrieveStage)
}

// NewProcess constructs a Process with an initial view. cfg is validated
// fail-fast.
func NewProcess(id ProcessID, cfg Config, host Host, initialView map[ProcessID]int) (*Process, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	view := make(map[ProcessID]int, len(initialView))
	for k, v := range initialView {
		if k == id {
			continue
		}
		view[k] = v
	}
	return &Process{
		id:                    id,
		config:                cfg,
		host:                  host,
		view:                  view,
		subs:                  make(map[ProcessID]int),
		unSubs:                make(map[ProcessID]int64),
		events:                make(map[EventID]Event),
		eventIds:              nil,
		eventIDSet:            make(map[EventID]struct{}),
		archivedEvents:        make(map[EventID]archivedEntry),
		retrieve:              make(map[EventID]MissingEvent),
		activeRetrieveRequest: make(map[EventID]*ActiveRetrieveRequest),
	}, nil
}

// ID returns the process's identifier.
func (p *Process) ID() ProcessID { return p.id }

// IsUnsubscribed reports whether the process is currently quiescent.
func (p *Process) IsUnsubscribed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isUnsubscribed
}

// ViewSize, SubsSize, UnsubsSize, EventsSize, EventIDsSize, ArchivedSize
// expose buffer occupancy for telemetry and tests; they are not part of
// the protocol proper.
func (p *Process) ViewSize() int     { return len(p.view) }
func (p *Process) SubsSize() int     { return len(p.subs) }
func (p *Process) UnsubsSize() int   { return len(p.unSubs) }
func (p *Process) EventsSize() int   { return len(p.events) }
func (p *Process) EventIDsSize() int { return len(p.eventIds) }
func (p *Process) ArchivedSize() int { return len(p.archivedEvents) }

// BufferStats is a point-in-time snapshot of the six bounded buffers'
// occupancy, for telemetry consumers that want to gauge them without
// reaching into Process internals.
type BufferStats struct {
	View, Subs, Unsubs, Events, EventIDs, Archived int
}

// Stats returns the current buffer occupancy. Like ViewSize et al., it
// touches state that is otherwise only mutated inside Step, so callers
// must invoke it from the same goroutine that drives Step (e.g. the
// Engine's own ticking loop, right after a Step call) rather than from
// an unrelated goroutine.
func (p *Process) Stats() BufferStats {
	return BufferStats{
		View:     len(p.view),
		Subs:     len(p.subs),
		Unsubs:   len(p.unSubs),
		Events:   len(p.events),
		EventIDs: len(p.eventIds),
		Archived: len(p.archivedEvents),
	}
}

// SetOnRecoveryStageChange installs an optional instrumentation hook,
// invoked every time an ActiveRetrieveRequest advances to a new stage
// (including its removal after ORIGINATOR times out). The core protocol
// never consults it to make decisions, only to report.
func (p *Process) SetOnRecoveryStageChange(fn func(stage RetrieveStage)) {
	p.onRecoveryStageChange = fn
}

// Receive stamps the message with a delivery tick and enqueues it. Safe
// to call concurrently from many senders. A quiescent process drops the
// message on the floor.
func (p *Process) Receive(msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isUnsubscribed {
		return
	}
	now := p.host.Now()
	var deliverAt int64
	if p.config.Sync {
		deliverAt = now + 1
	} else {
		deliverAt = now + int64(p.host.RandIntn(1, int(p.config.MessageMaxDelay)))
	}
	msg.DeliverAt = deliverAt
	p.receivedMessages = append(p.receivedMessages, inboundMessage{msg: msg, deliverAt: deliverAt})
}

// drainEligible removes and returns, in FIFO order, every queued message
// whose delivery tick has arrived.
func (p *Process) drainEligible(now int64) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	var eligible []Message
	remaining := p.receivedMessages[:0]
	for _, im := range p.receivedMessages {
		if im.deliverAt <= now {
			eligible = append(eligible, im.msg)
		} else {
			remaining = append(remaining, im)
		}
	}
	p.receivedMessages = remaining
	return eligible
}

// Step runs exactly once per tick. If isUnsubscribed, the tick is a
// no-op - quiescent processes silently drop everything.
func (p *Process) Step() {
	if p.IsUnsubscribed() {
		return
	}

	now := p.host.Now()
	for _, msg := range p.drainEligible(now) {
		switch msg.Kind {
		case KindGossip:
			p.gossipHandler(msg, now)
		case KindRetrieveRequest:
			p.retrieveRequestHandler(msg)
		case KindRetrieveReply:
			p.retrieveReplyHandler(msg, now)
		}
	}

	p.retrieveMissingMessages(now)
	p.gossip(now)
}

// LpbCast originates a fresh event. The originating process does not
// self-deliver; Deliver only fires when a peer receives the event
// through gossip. Callers must serialize LpbCast with Step, since it
// mutates the same buffers (e.g. invoke it from the Engine's OnRound
// hook or between ticks of a simulation).
func (p *Process) LpbCast() EventID {
	id := NewEventID(p.id)
	e := Event{ID: id, Age: 0}
	p.events[id] = e
	p.eventIds = append(p.eventIds, id)
	p.eventIDSet[id] = struct{}{}
	p.trimEvents(p.host.Now())
	p.trimEventIds()
	return id
}

// Subscribe joins the network through target. Requires the process to
// currently be unsubscribed.
func (p *Process) Subscribe(target ProcessID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isUnsubscribed {
		return
	}
	p.receivedMessages = nil
	p.view[target] = 0
	p.isUnsubscribed = false
}

// Unsubscribe latches a departure request. The actual departure happens
// at the end of the next gossip round.
func (p *Process) Unsubscribe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsubscriptionRequested = true
}

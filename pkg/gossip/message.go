package gossip

import "github.com/google/uuid"

// ProcessID identifies a process in the deployment. Processes never hold
// pointers to each other; every cross-process reference goes through a
// ProcessID and a Host.Resolve lookup.
type ProcessID int64

// EventID is globally unique on (UniqueID, Origin). It is comparable, so
// it can be used directly as a map key.
type EventID struct {
	UniqueID uuid.UUID
	Origin   ProcessID
}

// Event carries an EventID and the number of hops it has traveled. Events
// are plain structs with no pointer fields, so copying one is cloning it.
type Event struct {
	ID  EventID
	Age int
}

// RetrieveStage is the position of an ActiveRetrieveRequest in its
// three-stage retry state machine.
type RetrieveStage int

const (
	StageSender RetrieveStage = iota
	StageRandom
	StageOriginator
)

func (s RetrieveStage) String() string {
	switch s {
	case StageSender:
		return "sender"
	case StageRandom:
		return "random"
	case StageOriginator:
		return "originator"
	default:
		return "unknown"
	}
}

// MissingEvent is a pending recovery candidate: an EventID seen in a
// peer's gossip summary but not yet delivered locally.
type MissingEvent struct {
	EventID      EventID
	DiscoveredAt int64
	ObservedFrom ProcessID
}

// ActiveRetrieveRequest tracks an outstanding RetrieveRequest through its
// SENDER -> RANDOM -> ORIGINATOR escalation.
type ActiveRetrieveRequest struct {
	EventID EventID
	SentAt  int64
	Stage   RetrieveStage
}

// MessageKind discriminates the three wire shapes of the protocol. A
// single flat struct carries the union of fields, following the
// teacher's own GossipMsg shape (one struct, a Type tag) rather than a Go
// interface union - this keeps the type trivially copyable and
// JSON-encodable for HTTPTransport.
type MessageKind uint8

const (
	KindGossip MessageKind = iota
	KindRetrieveRequest
	KindRetrieveReply
)

func (k MessageKind) String() string {
	switch k {
	case KindGossip:
		return "gossip"
	case KindRetrieveRequest:
		return "retrieve_request"
	case KindRetrieveReply:
		return "retrieve_reply"
	default:
		return "unknown"
	}
}

// Message is the tagged variant exchanged between processes. Only the
// fields relevant to Kind are populated:
//
//	KindGossip:          Sender, Events, Subs, Unsubs, EventIDs
//	KindRetrieveRequest: Sender, EventID
//	KindRetrieveReply:   Sender, Event
type Message struct {
	Kind     MessageKind
	Sender   ProcessID
	Events   []Event
	Subs     []ProcessID
	Unsubs   []ProcessID
	EventIDs []EventID
	EventID  EventID
	Event    Event

	// DeliverAt is the tick at which this message becomes eligible for
	// handler dispatch. Stamped by Process.Receive, not by the sender.
	DeliverAt int64
}

// GossipMessage builds a KindGossip message.
func GossipMessage(sender ProcessID, events []Event, subs, unsubs []ProcessID, eventIDs []EventID) Message {
	return Message{
		Kind:     KindGossip,
		Sender:   sender,
		Events:   events,
		Subs:     subs,
		Unsubs:   unsubs,
		EventIDs: eventIDs,
	}
}

// RetrieveRequestMessage builds a KindRetrieveRequest message.
func RetrieveRequestMessage(sender ProcessID, id EventID) Message {
	return Message{Kind: KindRetrieveRequest, Sender: sender, EventID: id}
}

// RetrieveReplyMessage builds a KindRetrieveReply message.
func RetrieveReplyMessage(sender ProcessID, e Event) Message {
	return Message{Kind: KindRetrieveReply, Sender: sender, Event: e}
}

// NewEventID generates a fresh, globally-unique EventID originated by self.
func NewEventID(self ProcessID) EventID {
	return EventID{UniqueID: uuid.New(), Origin: self}
}

package gossip

import (
	"context"
	"testing"
	"time"
)

func TestChannelTransportSendAndHandle(t *testing.T) {
	registry := make(map[string]chan Message)
	a := NewChannelTransport(registry, "a")
	b := NewChannelTransport(registry, "b")
	defer a.Close()
	defer b.Close()

	received := make(chan Message, 1)
	b.Handle(func(msg Message) { received <- msg })

	msg := GossipMessage(1, nil, nil, nil, nil)
	if err := a.Send(context.Background(), "b", msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if got.Kind != KindGossip || got.Sender != 1 {
			t.Fatalf("unexpected message received: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message delivery")
	}
}

func TestChannelTransportSendUnknownAddrErrors(t *testing.T) {
	registry := make(map[string]chan Message)
	a := NewChannelTransport(registry, "a")
	defer a.Close()

	err := a.Send(context.Background(), "nowhere", GossipMessage(1, nil, nil, nil, nil))
	if err == nil {
		t.Fatalf("expected an error sending to an unregistered address")
	}
}

func TestChannelTransportSendRespectsContextCancellation(t *testing.T) {
	registry := make(map[string]chan Message, 2)
	// A full inbox that no transport is pumping, so the send can never
	// make progress and must fall through to the context case.
	full := make(chan Message, 1)
	full <- GossipMessage(0, nil, nil, nil, nil)
	registry["b"] = full
	a := NewChannelTransport(registry, "a")
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Send(ctx, "b", GossipMessage(1, nil, nil, nil, nil))
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled when the inbox is full and the context is already canceled, got %v", err)
	}
}

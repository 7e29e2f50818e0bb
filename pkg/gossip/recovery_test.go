package gossip

import "testing"

func TestRetrieveMissingMessagesPromotesAfterKRecovery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KRecovery = 10
	h := newTestHost(1)
	p := newTestProcess(t, 0, cfg, h)
	sender := newTestProcess(t, 1, cfg, h)
	h.register(1, sender)

	missing := NewEventID(2)
	p.retrieve[missing] = MissingEvent{EventID: missing, DiscoveredAt: 0, ObservedFrom: 1}

	p.retrieveMissingMessages(5) // 5 - 0 <= 10, not yet eligible
	if _, active := p.activeRetrieveRequest[missing]; active {
		t.Fatalf("should not promote before KRecovery ticks have elapsed")
	}
	if _, pending := p.retrieve[missing]; !pending {
		t.Fatalf("entry should still be pending before KRecovery elapses")
	}

	p.retrieveMissingMessages(11) // 11 - 0 > 10
	ar, active := p.activeRetrieveRequest[missing]
	if !active {
		t.Fatalf("expected promotion to an ActiveRetrieveRequest once KRecovery elapsed")
	}
	if ar.Stage != StageSender {
		t.Fatalf("a freshly promoted request should start at StageSender, got %v", ar.Stage)
	}
	if _, stillPending := p.retrieve[missing]; stillPending {
		t.Fatalf("retrieve entry should be cleared once promoted")
	}

	msgs := sender.drainEligible(1 << 30)
	if len(msgs) != 1 || msgs[0].Kind != KindRetrieveRequest {
		t.Fatalf("expected exactly one RetrieveRequest sent to the observed sender, got %+v", msgs)
	}
}

func TestRetrieveMissingMessagesSkipsAlreadyDelivered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KRecovery = 0
	h := newTestHost(1)
	p := newTestProcess(t, 0, cfg, h)

	id := NewEventID(2)
	p.eventIDSet[id] = struct{}{} // already delivered via another path
	p.retrieve[id] = MissingEvent{EventID: id, DiscoveredAt: 0, ObservedFrom: 1}

	p.retrieveMissingMessages(100)

	if _, active := p.activeRetrieveRequest[id]; active {
		t.Fatalf("an already-delivered event must never be promoted into a retrieve request")
	}
}

func TestUpdateActiveRetrieveRequestsEscalatesSenderToRandom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecoveryTimeout = 5
	h := newTestHost(3)
	p := newTestProcess(t, 0, cfg, h)
	p.view[7] = 0
	randomPeer := newTestProcess(t, 7, cfg, h)
	h.register(7, randomPeer)

	id := NewEventID(2)
	p.activeRetrieveRequest[id] = &ActiveRetrieveRequest{EventID: id, SentAt: 0, Stage: StageSender}

	p.updateActiveRetrieveRequests(10) // 10 - 0 >= 5

	ar := p.activeRetrieveRequest[id]
	if ar.Stage != StageRandom {
		t.Fatalf("expected escalation to StageRandom, got %v", ar.Stage)
	}
	msgs := randomPeer.drainEligible(1 << 30)
	if len(msgs) != 1 {
		t.Fatalf("expected the random view member to receive a RetrieveRequest, got %d", len(msgs))
	}
}

func TestUpdateActiveRetrieveRequestsSkipsRandomWhenViewEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecoveryTimeout = 5
	h := newTestHost(3)
	p := newTestProcess(t, 0, cfg, h) // view is empty
	origin := newTestProcess(t, 2, cfg, h)
	h.register(2, origin)

	id := EventID{Origin: 2}
	p.activeRetrieveRequest[id] = &ActiveRetrieveRequest{EventID: id, SentAt: 0, Stage: StageSender}

	p.updateActiveRetrieveRequests(10)

	ar := p.activeRetrieveRequest[id]
	if ar.Stage != StageOriginator {
		t.Fatalf("with an empty view, StageSender must escalate straight to StageOriginator, got %v", ar.Stage)
	}
	msgs := origin.drainEligible(1 << 30)
	if len(msgs) != 1 {
		t.Fatalf("expected the origin to receive the RetrieveRequest directly, got %d", len(msgs))
	}
}

func TestUpdateActiveRetrieveRequestsOriginatorStageGivesUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecoveryTimeout = 5
	h := newTestHost(3)
	p := newTestProcess(t, 0, cfg, h)

	id := NewEventID(2)
	p.activeRetrieveRequest[id] = &ActiveRetrieveRequest{EventID: id, SentAt: 0, Stage: StageOriginator}

	p.updateActiveRetrieveRequests(10)

	if _, active := p.activeRetrieveRequest[id]; active {
		t.Fatalf("a request that has already escalated through ORIGINATOR should be dropped, not retried forever")
	}
}

func TestOnRecoveryStageChangeFiresOnEveryTransition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecoveryTimeout = 5
	h := newTestHost(3)
	p := newTestProcess(t, 0, cfg, h) // empty view forces SENDER -> ORIGINATOR directly
	origin := newTestProcess(t, 2, cfg, h)
	h.register(2, origin)

	var seen []RetrieveStage
	p.SetOnRecoveryStageChange(func(stage RetrieveStage) { seen = append(seen, stage) })

	id := EventID{Origin: 2}
	p.activeRetrieveRequest[id] = &ActiveRetrieveRequest{EventID: id, SentAt: 0, Stage: StageSender}
	p.updateActiveRetrieveRequests(10)
	p.updateActiveRetrieveRequests(20) // StageOriginator now times out and gives up

	if len(seen) != 2 || seen[0] != StageOriginator || seen[1] != StageOriginator {
		t.Fatalf("expected two StageOriginator reports (escalation, then give-up), got %v", seen)
	}
}

func TestUpdateActiveRetrieveRequestsDoesNotEscalateBeforeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecoveryTimeout = 20
	h := newTestHost(3)
	p := newTestProcess(t, 0, cfg, h)

	id := NewEventID(2)
	p.activeRetrieveRequest[id] = &ActiveRetrieveRequest{EventID: id, SentAt: 10, Stage: StageSender}

	p.updateActiveRetrieveRequests(15) // 15 - 10 < 20

	if p.activeRetrieveRequest[id].Stage != StageSender {
		t.Fatalf("should not escalate before RecoveryTimeout ticks have elapsed")
	}
}

package gossip

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig() should validate cleanly, got %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	base := DefaultConfig()

	mutate := func(f func(*Config)) Config {
		c := base
		f(&c)
		return c
	}

	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ViewMax", mutate(func(c *Config) { c.ViewMax = 0 })},
		{"negative F", mutate(func(c *Config) { c.F = -1 })},
		{"K equal to 1", mutate(func(c *Config) { c.K = 1 })},
		{"K negative", mutate(func(c *Config) { c.K = -0.1 })},
		{"negative UnsubsValidity", mutate(func(c *Config) { c.UnsubsValidity = -1 })},
		{"negative KRecovery", mutate(func(c *Config) { c.KRecovery = -1 })},
		{"async with MessageMaxDelay 0", mutate(func(c *Config) { c.Sync = false; c.MessageMaxDelay = 0 })},
	}
	for _, tc := range cases {
		if err := tc.cfg.Validate(); err == nil {
			t.Errorf("%s: expected Validate to reject the config, got nil error", tc.name)
		}
	}
}

func TestMessageConstructorsTagKind(t *testing.T) {
	g := GossipMessage(1, nil, nil, nil, nil)
	if g.Kind != KindGossip {
		t.Fatalf("expected KindGossip, got %v", g.Kind)
	}

	id := NewEventID(1)
	req := RetrieveRequestMessage(1, id)
	if req.Kind != KindRetrieveRequest || req.EventID != id {
		t.Fatalf("expected a KindRetrieveRequest carrying %v, got kind=%v id=%v", id, req.Kind, req.EventID)
	}

	reply := RetrieveReplyMessage(1, Event{ID: id, Age: 3})
	if reply.Kind != KindRetrieveReply || reply.Event.ID != id {
		t.Fatalf("expected a KindRetrieveReply carrying %v, got kind=%v id=%v", id, reply.Kind, reply.Event.ID)
	}
}

func TestNewEventIDIsUniquePerCall(t *testing.T) {
	a := NewEventID(1)
	b := NewEventID(1)
	if a == b {
		t.Fatalf("expected two calls to NewEventID to produce distinct ids")
	}
}

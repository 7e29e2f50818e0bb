package host

import (
	"math/rand"
	"sync"

	"github.com/lpbcast/lpbcast/pkg/gossip"
)

// DeliverFunc is invoked whenever a process delivers an event for the
// first time. Tests and cmd/simulate use it to record/observe delivery.
type DeliverFunc func(self gossip.ProcessID, e gossip.Event)

// SimClock is a discrete-event simulation host: an explicit process
// registry plus a seeded RNG and a manually-advanced tick counter.
type SimClock struct {
	mu      sync.Mutex
	tick    int64
	rng     *rand.Rand
	members map[gossip.ProcessID]gossip.Peer
	deliver DeliverFunc
}

// NewSimClock builds a SimClock seeded for reproducible tests.
func NewSimClock(seed int64, deliver DeliverFunc) *SimClock {
	if deliver == nil {
		deliver = func(gossip.ProcessID, gossip.Event) {}
	}
	return &SimClock{
		rng:     rand.New(rand.NewSource(seed)),
		members: make(map[gossip.ProcessID]gossip.Peer),
		deliver: deliver,
	}
}

// Register makes a process resolvable by id. Call it once per process
// before any of them step or gossip.
func (s *SimClock) Register(id gossip.ProcessID, p gossip.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = p
}

// Unregister removes a process from the registry, simulating permanent
// departure - subsequent Resolve calls for it report "no peer".
func (s *SimClock) Unregister(id gossip.ProcessID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
}

// Tick advances the simulation clock by one. The caller is responsible
// for then calling Step on every process it wants to run that tick.
func (s *SimClock) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	return s.tick
}

func (s *SimClock) Now() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

func (s *SimClock) RandIntn(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *SimClock) Resolve(id gossip.ProcessID) (gossip.Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[id]
	return p, ok
}

func (s *SimClock) Deliver(self gossip.ProcessID, e gossip.Event) {
	s.deliver(self, e)
}

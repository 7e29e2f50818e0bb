package gossip

import (
	"math/rand"
	"sync"
)

// testHost is a minimal, deterministic Host for unit tests: a seeded RNG,
// an explicit process registry (no global lookup, per spec.md §9), and a
// recording Deliver callback.
type testHost struct {
	mu        sync.Mutex
	tick      int64
	rng       *rand.Rand
	peers     map[ProcessID]Peer
	delivered map[ProcessID][]Event
}

func newTestHost(seed int64) *testHost {
	return &testHost{
		rng:       rand.New(rand.NewSource(seed)),
		peers:     make(map[ProcessID]Peer),
		delivered: make(map[ProcessID][]Event),
	}
}

func (h *testHost) register(id ProcessID, p Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[id] = p
}

func (h *testHost) unregister(id ProcessID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, id)
}

func (h *testHost) setTick(t int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tick = t
}

func (h *testHost) advance() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tick++
	return h.tick
}

func (h *testHost) Now() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

func (h *testHost) RandIntn(lo, hi int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hi <= lo {
		return lo
	}
	return lo + h.rng.Intn(hi-lo+1)
}

func (h *testHost) Resolve(id ProcessID) (Peer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.peers[id]
	return p, ok
}

func (h *testHost) Deliver(self ProcessID, e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delivered[self] = append(h.delivered[self], e)
}

func (h *testHost) deliveredCount(id ProcessID, eid EventID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.delivered[id] {
		if e.ID == eid {
			n++
		}
	}
	return n
}

// fullyConnectedView returns a view map containing every id in ids
// except self, all at frequency 0.
func fullyConnectedView(self ProcessID, ids []ProcessID) map[ProcessID]int {
	view := make(map[ProcessID]int)
	for _, id := range ids {
		if id != self {
			view[id] = 0
		}
	}
	return view
}

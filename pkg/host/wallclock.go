package host

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lpbcast/lpbcast/internal/telemetry"
	"github.com/lpbcast/lpbcast/pkg/gossip"
)

func processLabel(id gossip.ProcessID) string {
	return strconv.FormatInt(int64(id), 10)
}

// Directory resolves a ProcessID to a reachable address. Production
// deployments back this with package discovery's etcd registry; tests
// can use a plain map.
type Directory interface {
	Lookup(id gossip.ProcessID) (addr string, ok bool)
}

// MapDirectory is the simplest Directory: a static/updatable map guarded
// by a mutex, the same concurrency idiom the teacher uses throughout
// (pkg/ring.HashRing, pkg/kv.Store).
type MapDirectory struct {
	mu    sync.RWMutex
	addrs map[gossip.ProcessID]string
}

// NewMapDirectory builds an empty MapDirectory.
func NewMapDirectory() *MapDirectory {
	return &MapDirectory{addrs: make(map[gossip.ProcessID]string)}
}

// Set registers or updates a process's address.
func (d *MapDirectory) Set(id gossip.ProcessID, addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs[id] = addr
}

// Remove drops a process's address - subsequent lookups report "no peer".
func (d *MapDirectory) Remove(id gossip.ProcessID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.addrs, id)
}

func (d *MapDirectory) Lookup(id gossip.ProcessID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	addr, ok := d.addrs[id]
	return addr, ok
}

// remotePeer adapts an address + Transport into a gossip.Peer. Errors
// are logged, never surfaced to the protocol - a peer that has left the
// system just silently drops the send.
type remotePeer struct {
	addr      string
	transport gossip.Transport
	log       *zap.SugaredLogger
}

func (r remotePeer) Receive(msg gossip.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.transport.Send(ctx, r.addr, msg); err != nil {
		r.log.Debugw("gossip send failed", "addr", r.addr, "kind", msg.Kind.String(), "err", err)
	}
}

// WallClock is the real-time Host used by cmd/lpbcastd: Now() advances
// off the system clock, Resolve goes through a Directory + Transport,
// and Deliver/logging go through zap, replacing the teacher's scattered
// log.Printf calls with structured fields.
type WallClock struct {
	start     time.Time
	tickUnit  time.Duration
	dir       Directory
	transport gossip.Transport
	log       *zap.SugaredLogger
	rng       *rand.Rand
	mu        sync.Mutex
}

// NewWallClock builds a WallClock. tickUnit determines the granularity
// of Now() (e.g. time.Second means Now() returns elapsed whole seconds).
func NewWallClock(dir Directory, transport gossip.Transport, log *zap.SugaredLogger, tickUnit time.Duration) *WallClock {
	if tickUnit <= 0 {
		tickUnit = time.Second
	}
	return &WallClock{
		start:     time.Now(),
		tickUnit:  tickUnit,
		dir:       dir,
		transport: transport,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (w *WallClock) Now() int64 {
	return int64(time.Since(w.start) / w.tickUnit)
}

func (w *WallClock) RandIntn(lo, hi int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if hi <= lo {
		return lo
	}
	return lo + w.rng.Intn(hi-lo+1)
}

func (w *WallClock) Resolve(id gossip.ProcessID) (gossip.Peer, bool) {
	addr, ok := w.dir.Lookup(id)
	if !ok {
		return nil, false
	}
	return remotePeer{addr: addr, transport: w.transport, log: w.log}, true
}

func (w *WallClock) Deliver(self gossip.ProcessID, e gossip.Event) {
	w.log.Infow("event delivered",
		"process_id", self,
		"event_id", e.ID.UniqueID.String(),
		"origin", e.ID.Origin,
		"age", e.Age,
	)
	telemetry.EventsDeliveredTotal.WithLabelValues(processLabel(self)).Inc()
}

package discovery

import (
	"encoding/binary"
	"hash/fnv"
	"slices"
	"sort"
	"sync"
)

// BootstrapRing picks a spread set of introducer candidates for a
// joining process out of the registry's known peers, using consistent
// hashing over a join key (e.g. the joiner's own id or address) so that
// repeated joins from the same key land on the same small set of
// introducers instead of hammering whichever peer happened to answer
// first. Adapted from the teacher's pkg/ring.HashRing - lpbcast has no
// sharded-ownership concept to route keys to, but picking a
// deterministic, well-spread subset of a dynamic member set is exactly
// what consistent hashing is for, so the ring survives repurposed here
// rather than discarded.
type BootstrapRing struct {
	mu       sync.RWMutex
	replicas int
	points   []uint32
	owners   map[uint32]string // point -> node id
	nodes    map[string]string // node id -> addr
}

// NewBootstrapRing builds a ring with the given number of virtual nodes
// per real node (higher spreads ownership more evenly).
func NewBootstrapRing(replicas int) *BootstrapRing {
	if replicas <= 0 {
		replicas = 64
	}
	return &BootstrapRing{
		replicas: replicas,
		owners:   make(map[uint32]string),
		nodes:    make(map[string]string),
	}
}

// Sync replaces the ring's membership with the given id -> addr mapping,
// as reported by WatchPeers.
func (r *BootstrapRing) Sync(peers map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[string]string, len(peers))
	for id, addr := range peers {
		r.nodes[id] = addr
	}

	r.points = r.points[:0]
	clear(r.owners)
	for id := range r.nodes {
		for i := 0; i < r.replicas; i++ {
			pt := hashPoint(id, i)
			r.owners[pt] = id
			r.points = append(r.points, pt)
		}
	}
	slices.Sort(r.points)
}

// Introducers returns up to n distinct introducer addresses for the
// given join key, walking the ring clockwise from the key's hash.
func (r *BootstrapRing) Introducers(joinKey string, n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 || n <= 0 {
		return nil
	}
	h := hashBytes([]byte(joinKey))
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= h })
	if idx == len(r.points) {
		idx = 0
	}

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for i := 0; i < len(r.points) && len(out) < n; i++ {
		id := r.owners[r.points[(idx+i)%len(r.points)]]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r.nodes[id])
	}
	return out
}

func hashBytes(b []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(b)
	return h.Sum32()
}

func hashPoint(id string, i int) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(i))
	return hashBytes(append([]byte(id), buf[:]...))
}

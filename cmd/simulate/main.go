// Command simulate runs an in-process, fully-connected lpbcast
// deployment over a discrete-event SimClock: N processes, driven tick by
// tick, with one process periodically originating a broadcast. For
// each broadcast it reports the tick it originated at and how many of
// the other processes delivered it. Adapted from the teacher's
// cmd/bench/main.go (flag-configured load generator, timing summary),
// swapping HTTP PUT/GET load generation for tick-driven gossip.
package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/lpbcast/lpbcast/pkg/gossip"
	"github.com/lpbcast/lpbcast/pkg/host"
)

func main() {
	n := flag.Int("n", 10, "number of processes")
	ticks := flag.Int("ticks", 200, "number of ticks to simulate")
	seed := flag.Int64("seed", 1, "RNG seed")
	castEvery := flag.Int("cast-every", 20, "ticks between broadcasts from process 0")
	flag.Parse()

	var mu sync.Mutex
	deliveredAt := make(map[gossip.EventID]map[gossip.ProcessID]int64)
	originatedAt := make(map[gossip.EventID]int64)

	var clock *host.SimClock
	clock = host.NewSimClock(*seed, func(self gossip.ProcessID, e gossip.Event) {
		mu.Lock()
		defer mu.Unlock()
		if deliveredAt[e.ID] == nil {
			deliveredAt[e.ID] = make(map[gossip.ProcessID]int64)
		}
		deliveredAt[e.ID][self] = clock.Now()
	})

	cfg := gossip.DefaultConfig()
	procs := make([]*gossip.Process, *n)
	fullView := make(map[gossip.ProcessID]int)
	for i := 0; i < *n; i++ {
		fullView[gossip.ProcessID(i)] = 0
	}
	for i := 0; i < *n; i++ {
		id := gossip.ProcessID(i)
		p, err := gossip.NewProcess(id, cfg, clock, fullView)
		if err != nil {
			panic(err)
		}
		procs[i] = p
		clock.Register(id, p)
	}

	start := time.Now()
	for t := 0; t < *ticks; t++ {
		clock.Tick()
		if t > 0 && *castEvery > 0 && t%*castEvery == 0 {
			id := procs[0].LpbCast()
			mu.Lock()
			originatedAt[id] = clock.Now()
			mu.Unlock()
		}
		for _, p := range procs {
			p.Step()
		}
	}
	elapsed := time.Since(start)

	mu.Lock()
	defer mu.Unlock()
	fmt.Printf("simulated %d processes over %d ticks in %s\n", *n, *ticks, elapsed)
	for id, originTick := range originatedAt {
		delivered := len(deliveredAt[id])
		fmt.Printf("event %s originated@%d delivered_to=%d/%d\n", id.UniqueID.String(), originTick, delivered, *n-1)
	}
}

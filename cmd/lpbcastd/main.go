// Command lpbcastd runs a single lpbcast process as a long-lived daemon:
// it bootstraps its initial view from etcd, serves the gossip protocol
// over HTTP, and exposes health and metrics endpoints. Adapted from the
// teacher's cmd/server/main.go boot sequence (create local state ->
// create etcd client -> bootstrap peers -> register self -> watch peers
// -> wire HTTP mux), stepping a gossip Process instead of a cache node.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lpbcast/lpbcast/discovery"
	"github.com/lpbcast/lpbcast/internal/telemetry"
	"github.com/lpbcast/lpbcast/pkg/gossip"
	"github.com/lpbcast/lpbcast/pkg/host"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	telemetry.SetBuildInfo(envOr("BUILD_VERSION", "dev"), envOr("BUILD_GIT_SHA", "unknown"))

	var (
		selfIDFlag  = flag.Int64("id", envInt64("SELF_ID", 0), "this process's numeric id")
		selfAddr    = flag.String("addr", os.Getenv("SELF_ADDR"), "address this process advertises, e.g. http://host:8080/gossip")
		listenAddr  = flag.String("listen", ":8080", "HTTP listen address")
		etcdAddr    = flag.String("etcd", envOr("ETCD_ENDPOINT", "http://etcd:2379"), "etcd endpoint")
		leaseTTL    = flag.Int64("lease-ttl", 10, "etcd registration lease TTL (seconds)")
		tickSeconds = flag.Int("tick-seconds", 1, "gossip round interval in seconds")
	)
	flag.Parse()

	selfID := gossip.ProcessID(*selfIDFlag)
	idLabel := strconv.FormatInt(int64(selfID), 10)
	cfg := gossip.DefaultConfig()

	// Peers dial each other with the URL they advertised, so canonicalize
	// a bare host[:port] into a full gossip endpoint before registering.
	advertise := *selfAddr
	if advertise == "" {
		log.Fatalw("missing -addr / SELF_ADDR")
	}
	if !strings.HasPrefix(advertise, "http://") && !strings.HasPrefix(advertise, "https://") {
		advertise = "http://" + discovery.NormalizeHostPort(advertise, "8080") + "/gossip"
	}

	transport := gossip.NewHTTPTransport(5 * time.Second)
	dir := host.NewMapDirectory()
	h := host.NewWallClock(dir, transport, log, time.Duration(*tickSeconds)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cli, err := discovery.NewClient([]string{*etcdAddr})
	if err != nil {
		log.Fatalw("create etcd client", "err", err)
	}
	defer cli.Close()

	log.Infow("bootstrapping", "etcd", *etcdAddr)
	peers, err := discovery.GetPeers(ctx, cli)
	if err != nil {
		log.Fatalw("bootstrap peers", "err", err)
	}
	for idStr, addr := range peers {
		id, perr := strconv.ParseInt(idStr, 10, 64)
		if perr != nil {
			continue
		}
		dir.Set(gossip.ProcessID(id), addr)
	}

	// Rather than seeding the initial view with every peer etcd happens
	// to return (which concentrates load on whichever nodes answer
	// first), pick a deterministic, well-spread subset via consistent
	// hashing; ordinary gossip exchange fills in the rest of the view
	// from there.
	ring := discovery.NewBootstrapRing(64)
	ring.Sync(peers)
	initialView := make(map[gossip.ProcessID]int)
	for _, addr := range ring.Introducers(idLabel, cfg.F) {
		for idStr, candidate := range peers {
			if candidate != addr {
				continue
			}
			id, perr := strconv.ParseInt(idStr, 10, 64)
			if perr == nil {
				initialView[gossip.ProcessID(id)] = 0
			}
		}
	}

	eng, err := gossip.New(selfID, cfg, h, initialView, time.Duration(*tickSeconds)*time.Second)
	if err != nil {
		log.Fatalw("invalid config", "err", err)
	}
	transport.Handle(func(msg gossip.Message) {
		eng.Process.Receive(msg)
	})

	eng.Process.SetOnRecoveryStageChange(func(stage gossip.RetrieveStage) {
		telemetry.RecoveryStageTotal.WithLabelValues(idLabel, stage.String()).Inc()
	})
	eng.OnRound = func(p *gossip.Process) {
		telemetry.RoundsTotal.WithLabelValues(idLabel).Inc()
		stats := p.Stats()
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "view").Set(float64(stats.View))
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "subs").Set(float64(stats.Subs))
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "unsubs").Set(float64(stats.Unsubs))
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "events").Set(float64(stats.Events))
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "event_ids").Set(float64(stats.EventIDs))
		telemetry.BufferOccupancy.WithLabelValues(idLabel, "archived").Set(float64(stats.Archived))
	}

	leaseID, cancelLease, err := discovery.RegisterNode(ctx, cli, idLabel, advertise, *leaseTTL)
	if err != nil {
		log.Fatalw("register node", "err", err)
	}
	defer func() {
		cancelLease()
		_, _ = cli.Revoke(context.Background(), leaseID)
	}()

	go discovery.WatchPeers(ctx, cli, func(peers map[string]string) {
		for idStr, addr := range peers {
			id, perr := strconv.ParseInt(idStr, 10, 64)
			if perr != nil {
				continue
			}
			dir.Set(gossip.ProcessID(id), addr)
		}
		log.Infow("peer directory updated", "count", len(peers))
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/gossip", telemetry.Instrument("gossip", transport))

	eng.Start()
	defer eng.Stop()

	log.Infow("lpbcastd listening", "addr", *listenAddr, "process_id", selfID)
	if err := http.ListenAndServe(*listenAddr, mux); err != nil {
		log.Fatalw("http server exited", "err", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

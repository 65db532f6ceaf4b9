// Package lp assembles C4-C8 into the Link Protocol singleton the spec's
// design notes call for: "LP and NP each maintain process-wide tables...
// initialize(config) -> listen/tick -> finalize" (spec §9). The daemon
// host process (out of scope, spec §1) owns this lifecycle: it resolves
// config file paths, calls Initialize once, runs the returned Module until
// shutdown, and calls Finalize to flush state back to disk.
package lp

import (
	"context"
	"net"
	"time"

	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/logging"
	"kurupira/infrastructure/lp/dataplane"
	"kurupira/infrastructure/lp/handshake"
	"kurupira/infrastructure/lp/nodecache"
	"kurupira/infrastructure/lp/scheduler"
	"kurupira/infrastructure/lp/sessiontable"
	"kurupira/infrastructure/lp/sockopt"
	"kurupira/infrastructure/queue"
)

// udpConn adapts *net.UDPConn to application.UDPConn; every method it needs
// is already exported by *net.UDPConn, so embedding is enough.
type udpConn struct{ *net.UDPConn }

// Module is the Link Protocol's process-wide state: the node cache, the
// session table, and the scheduler that drives both.
type Module struct {
	cfg       config.LP
	cache     *nodecache.Cache
	sessions  *sessiontable.Table
	scheduler *scheduler.Scheduler
	upward    *queue.Queue[uint8]
}

// Initialize builds a Module from cfg: it loads the static and recent node
// files into the cache, binds the UDP listener, and wires the session
// table, handshake engine, and scheduler over it (spec §4.4, §6 "LP
// listener"). It does not yet listen; call Run for that.
func Initialize(cfg config.LP, log logging.Logger) (*Module, error) {
	cache := nodecache.New(cfg.CacheSize)
	if _, err := cache.LoadFile(cfg.StaticNodesFile); err != nil {
		log.Printf("lp: static nodes file %q: %v", cfg.StaticNodesFile, err)
	}
	if _, err := cache.LoadFile(cfg.RecentNodesFile); err != nil {
		log.Printf("lp: recent nodes file %q: %v", cfg.RecentNodesFile, err)
	}

	expirationTicks := int(time.Duration(cfg.ExpirationTime) * time.Second / config.Tick)
	sessions := sessiontable.New(config.MaxSessions, expirationTicks, config.TSilentTicks, config.TTimeoutTicks)
	registry := cryptoregistry.NewRegistry()
	hs := handshake.NewEngine(sessions, cache, registry, cfg)

	addr := &net.UDPAddr{Port: cfg.Port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, err
	}
	if err := sockopt.TuneReceiveBuffer(conn, cfg.ReceiveBufferSize); err != nil {
		log.Printf("lp: SO_RCVBUF tuning to %d bytes failed, using the kernel default: %v", cfg.ReceiveBufferSize, err)
	}

	upward := queue.New[uint8](config.MaxSessions * 4)

	sched := scheduler.New(udpConn{conn}, sessions, cache, hs, upward, cfg, log)

	return &Module{cfg: cfg, cache: cache, sessions: sessions, scheduler: sched, upward: upward}, nil
}

// Scheduler returns the module's scheduler, for NP's LPTransport wiring and
// the console's LP command table.
func (m *Module) Scheduler() *scheduler.Scheduler { return m.scheduler }

// Upward returns the queue of NP frames delivered from LP's data plane,
// tagged by the LP session number they arrived on (spec §4.3, §5 "NP: one
// listen thread draining from LP's upward queue"). NP's module drains this
// to feed its router.
func (m *Module) Upward() *queue.Queue[uint8] { return m.upward }

// Data returns the embedded data-plane engine, which implements
// application.LPTransport for NP (spec §2 "Data-flow summary").
func (m *Module) Data() *dataplane.Engine { return m.scheduler.Data() }

// Run starts the listen loop and the three timer threads; it blocks until
// ctx is cancelled or a fatal error occurs (spec §4.8).
func (m *Module) Run(ctx context.Context) error {
	return m.scheduler.Run(ctx)
}

// Finalize flushes every known node address back to the recent-nodes file,
// the only file the core writes (spec §6 "Persisted state"). Call only
// after Run has returned.
func (m *Module) Finalize() error {
	return m.cache.Flush(m.cfg.RecentNodesFile)
}

// Package np assembles C10-C13 into the Network Protocol singleton (spec
// §9's "initialize(config) -> listen/tick -> finalize", mirrored from
// package lp). It owns this node's identity, routing table, key store, and
// router, and drains LP's upward queue into the router (spec §5 "NP: one
// listen thread draining from LP's upward queue").
package np

import (
	"context"

	"kurupira/application"
	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/logging"
	"kurupira/infrastructure/np/dataplane"
	"kurupira/infrastructure/np/handshake"
	"kurupira/infrastructure/np/identity"
	"kurupira/infrastructure/np/keystore"
	"kurupira/infrastructure/np/routing"
	"kurupira/infrastructure/queue"
)

// Module is the Network Protocol's process-wide state: this node's
// identity, its routing and duplicate-suppression tables, its key store,
// and the router and handshake engine built over them.
type Module struct {
	cfg    config.NP
	self   *identity.Identity
	table  *routing.Table
	router *dataplane.Router
	hs     *handshake.Engine
	log    logging.Logger

	reliable   *queue.Queue[domain.PeerID]
	unreliable *queue.Queue[domain.PeerID]
}

// Initialize builds a Module from cfg over transport, LP's view of its own
// session mesh (application.LPTransport, spec §2 "Data-flow summary"). It
// loads this node's RSA identity from cfg's key files and wires the
// routing table, key store, router, and handshake engine over it.
func Initialize(cfg config.NP, transport application.LPTransport, log logging.Logger) (*Module, error) {
	self, err := identity.Load(cfg.PublicKeyFile, cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}

	table := routing.New(config.RoutingTableSize, config.HistorySize)
	dup := routing.NewDuplicateTable(config.DuplicateTableSize)
	store := keystore.New(cfg.KeyStoreSize)
	registry := cryptoregistry.NewRegistry()

	reliable := queue.New[domain.PeerID](cfg.KeyStoreSize * 4)
	unreliable := queue.New[domain.PeerID](cfg.KeyStoreSize * 4)

	router := dataplane.NewRouter(self.Self, table, dup, store, transport, reliable, unreliable, cfg)
	hs := handshake.NewEngine(self, store, table, registry, router, cfg)
	router.SetHandshake(hs)

	return &Module{
		cfg:        cfg,
		self:       self,
		table:      table,
		router:     router,
		hs:         hs,
		log:        log,
		reliable:   reliable,
		unreliable: unreliable,
	}, nil
}

// Identity returns this node's loaded RSA identity and derived PeerID.
func (m *Module) Identity() *identity.Identity { return m.self }

// Table returns the routing table, for the console's NP command table.
func (m *Module) Table() *routing.Table { return m.table }

// Handshake returns the handshake engine, for outbound connect requests
// and the console's NP command table.
func (m *Module) Handshake() *handshake.Engine { return m.hs }

// Router returns the data-plane router, for application code that writes
// or reads NP frames over its Write/Read channel API (spec §4.2).
func (m *Module) Router() *dataplane.Router { return m.router }

// Run drains upward, LP's queue of NP frames tagged by the LP session they
// arrived on, feeding each into the router until ctx is cancelled or the
// queue is closed (spec §5 "NP: one listen thread draining from LP's
// upward queue"). It blocks until then.
func (m *Module) Run(ctx context.Context, upward *queue.Queue[uint8]) error {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		upward.Close()
	}()
	defer close(done)

	buf := make([]byte, config.FTU)
	for {
		session, n, err := upward.Dequeue(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := m.router.Receive(session, buf[:n]); err != nil {
			m.log.Printf("np: receive from session %d: %v", session, err)
		}
	}
}

// Finalize releases NP's process-wide state. The router and key store
// hold no on-disk state of their own (spec §6 lists only LP's recent-nodes
// file as persisted), so this only unblocks anything still waiting on the
// channel queues.
func (m *Module) Finalize() error {
	m.reliable.Close()
	m.unreliable.Close()
	return nil
}

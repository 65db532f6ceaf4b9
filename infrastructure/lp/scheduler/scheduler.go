// Package scheduler implements C8, the Link Protocol's thread inventory: a
// listen loop dispatching received datagrams by type, and three ticking
// maintenance loops (timeout, silence, monitor), all under a single
// errgroup so any one failing tears down the rest (spec §4.8). The
// errgroup.WithContext fan-out is grounded directly on the teacher's
// infrastructure/routing_layer/client_routing.Router.RouteTraffic, which
// spawns TUN<->transport pumps the same way; here generalized from two
// goroutines to four, with ticker-driven loops instead of blocking reads.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"kurupira/application"
	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/logging"
	"kurupira/infrastructure/lp/dataplane"
	"kurupira/infrastructure/lp/handshake"
	"kurupira/infrastructure/lp/nodecache"
	"kurupira/infrastructure/lp/sessiontable"
)

// connSender adapts application.UDPConn to dataplane.Sender.
type connSender struct{ conn application.UDPConn }

func (c connSender) Send(addr domain.NetworkAddress, frame []byte) error {
	_, err := c.conn.WriteToUDPAddrPort(frame, addr.AddrPort())
	return err
}

// Scheduler owns the LP listen loop and its three timer threads.
type Scheduler struct {
	conn     application.UDPConn
	sessions *sessiontable.Table
	cache    *nodecache.Cache
	hs       *handshake.Engine
	dp       *dataplane.Engine
	cfg      config.LP
	log      logging.Logger
}

// New wires a Scheduler over an already-bound UDP connection.
func New(conn application.UDPConn, sessions *sessiontable.Table, cache *nodecache.Cache, hs *handshake.Engine, upward dataplane.Upward, cfg config.LP, log logging.Logger) *Scheduler {
	dp := dataplane.NewEngine(sessions, cache, connSender{conn: conn}, upward)
	return &Scheduler{conn: conn, sessions: sessions, cache: cache, hs: hs, dp: dp, cfg: cfg, log: log}
}

// Data returns the embedded data-plane engine, for the console's telemetry
// and for wiring NP's LPTransport adapter.
func (s *Scheduler) Data() *dataplane.Engine { return s.dp }

// Sessions returns the session table, for the console's "status" command.
func (s *Scheduler) Sessions() *sessiontable.Table { return s.sessions }

// Cache returns the node cache, for the console's "nodes" command.
func (s *Scheduler) Cache() *nodecache.Cache { return s.cache }

// Run starts the listen loop and the three timer loops, returning when ctx
// is cancelled or any loop returns an error (spec §4.8, §5 "Shutdown").
func (s *Scheduler) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-ctx.Done()
		return s.conn.Close()
	})
	eg.Go(func() error { return s.listen(ctx) })
	eg.Go(func() error { return s.tickLoop(ctx, config.Tick, s.runTimeouts) })
	eg.Go(func() error { return s.tickLoop(ctx, config.Tick, s.runSilence) })
	eg.Go(func() error { return s.monitorLoop(ctx) })

	return eg.Wait()
}

func (s *Scheduler) tickLoop(ctx context.Context, period time.Duration, fn func()) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Scheduler) runTimeouts() {
	actions := s.sessions.TickTimeouts()
	for _, session := range actions.CloseSessions {
		s.sessions.Close(session, s.cache.MarkInactive)
	}
	for _, session := range actions.GracefulDisconnects {
		s.sessions.With(session, func(sl *sessiontable.Slot) {
			if sl.State() == domain.SessionEstablished {
				sl.SetState(domain.SessionCloseWait)
			}
		})
		if err := s.dp.SendCloseRequest(session); err != nil {
			s.log.Printf("lp: graceful disconnect on session %d: %v", session, err)
		}
	}
}

func (s *Scheduler) runSilence() {
	actions := s.sessions.TickSilence()
	for _, session := range actions.SendKeepAlive {
		if err := s.dp.SendKeepAlive(session); err != nil {
			s.log.Printf("lp: keep-alive on session %d: %v", session, err)
		}
	}
	for _, session := range actions.ResendCloseRequest {
		if err := s.dp.SendCloseRequest(session); err != nil {
			s.log.Printf("lp: close-request resend on session %d: %v", session, err)
		}
	}
}

func (s *Scheduler) monitorLoop(ctx context.Context) error {
	ticker := time.NewTicker(config.Tick * config.MonitorTickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.huntMaintenance()
			s.connectFloor()
		}
	}
}

func (s *Scheduler) huntMaintenance() {
	if s.cache.FillFraction() >= 0.5 {
		return
	}
	for _, session := range s.cache.ActiveSessions() {
		if err := s.dp.SendNodeHunt(uint8(session)); err != nil {
			s.log.Printf("lp: node hunt on session %d: %v", session, err)
		}
	}
}

func (s *Scheduler) connectFloor() {
	if s.sessions.ActiveCount() >= s.cfg.MinConnections {
		return
	}
	addr, ok := s.cache.RandomInactive()
	if !ok {
		return
	}
	if err := s.ConnectTo(addr); err != nil {
		s.log.Printf("lp: connect-floor top-up to %s: %v", addr, err)
	}
}

// ConnectTo initiates an outbound handshake to addr, used both by the
// connect-floor top-up and by an operator-issued console command.
func (s *Scheduler) ConnectTo(addr domain.NetworkAddress) error {
	req, _, err := s.hs.BeginOutbound(addr, nil)
	if err != nil {
		return err
	}
	encoded, err := req.Encode()
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDPAddrPort(encoded, addr.AddrPort())
	return err
}

// Disconnect initiates a graceful local teardown of session (spec §4.5
// "ESTABLISHED --local disconnect--> CLOSE_WAIT", S3), for the console
// "disconnect" command (SPEC_FULL §4).
func (s *Scheduler) Disconnect(session uint8) error {
	ok := s.sessions.With(session, func(sl *sessiontable.Slot) {
		if sl.State() == domain.SessionEstablished {
			sl.SetState(domain.SessionCloseWait)
		}
	})
	if !ok {
		return ErrNoSuchSession
	}
	return s.dp.SendCloseRequest(session)
}

func (s *Scheduler) listen(ctx context.Context) error {
	buf := make([]byte, config.MTU)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, addrPort, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n < 1 {
			continue
		}
		addr := domain.NewNetworkAddress(addrPort)
		s.dispatch(addr, append([]byte(nil), buf[:n]...))
	}
}

func (s *Scheduler) dispatch(addr domain.NetworkAddress, frame []byte) {
	typ := domain.LPPacketType(frame[0])
	body := frame[1:]

	switch typ {
	case domain.LPConnectionRequest:
		s.handleConnectionRequest(addr, body)
	case domain.LPConnectionOK:
		s.handleConnectionOK(body)
	case domain.LPKeyExchange:
		s.handleKeyExchange(body)
	case domain.LPData:
		if len(body) < 1 {
			return
		}
		session := body[0]
		if err := s.dp.HandleData(session, body[1:]); err != nil {
			s.log.Printf("lp: data frame from session %d: %v", session, err)
		}
	default:
		s.log.Printf("lp: dropped frame with unexpected top-level type %v from %s", typ, addr)
	}
}

func (s *Scheduler) handleConnectionRequest(addr domain.NetworkAddress, body []byte) {
	req, err := handshake.DecodeConnectionRequest(body)
	if err != nil {
		s.log.Printf("lp: malformed CONNECTION_REQUEST from %s: %v", addr, err)
		return
	}
	ok, _, err := s.hs.HandleConnectionRequest(addr, req)
	if err != nil {
		s.log.Printf("lp: rejected CONNECTION_REQUEST from %s: %v", addr, err)
		return
	}
	encoded, err := ok.Encode()
	if err != nil {
		s.log.Printf("lp: encoding CONNECTION_OK for %s: %v", addr, err)
		return
	}
	if _, err := s.conn.WriteToUDPAddrPort(encoded, addr.AddrPort()); err != nil {
		s.log.Printf("lp: sending CONNECTION_OK to %s: %v", addr, err)
	}
}

func (s *Scheduler) handleConnectionOK(body []byte) {
	ok, err := handshake.DecodeConnectionOK(body)
	if err != nil {
		s.log.Printf("lp: malformed CONNECTION_OK: %v", err)
		return
	}
	kex, err := s.hs.HandleConnectionOK(ok)
	if err != nil {
		s.log.Printf("lp: rejected CONNECTION_OK: %v", err)
		return
	}
	var addr domain.NetworkAddress
	s.sessions.With(ok.DestinationSession, func(sl *sessiontable.Slot) { addr = sl.Addr() })
	encoded, err := kex.Encode()
	if err != nil {
		s.log.Printf("lp: encoding KEY_EXCHANGE: %v", err)
		return
	}
	if _, err := s.conn.WriteToUDPAddrPort(encoded, addr.AddrPort()); err != nil {
		s.log.Printf("lp: sending KEY_EXCHANGE to %s: %v", addr, err)
	}
}

func (s *Scheduler) handleKeyExchange(body []byte) {
	kex, err := handshake.DecodeKeyExchange(body)
	if err != nil {
		s.log.Printf("lp: malformed KEY_EXCHANGE: %v", err)
		return
	}
	if err := s.hs.HandleKeyExchange(kex); err != nil {
		s.log.Printf("lp: rejected KEY_EXCHANGE: %v", err)
	}
}

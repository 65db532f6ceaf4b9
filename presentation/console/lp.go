package console

import (
	"fmt"
	"strconv"
	"strings"

	"kurupira/domain"
	"kurupira/infrastructure/lp/scheduler"
	"kurupira/infrastructure/lp/sessiontable"
)

// LP command IDs, stable across the console transport (SPEC_FULL §4).
const (
	LPStatus     = iota + 1 // per-session one-line dump
	LPNodes                 // node-cache dump
	LPConnect               // connect <host:port>
	LPDisconnect            // disconnect <session>
)

// LPCommands returns the Link Protocol's console command table: status,
// nodes, connect, disconnect (SPEC_FULL §4, "SUPPLEMENTED FEATURES").
func LPCommands(s *scheduler.Scheduler) Registry {
	return NewRegistry([]Command{
		{Name: "status", Help: "dump per-session state and aggregate link counters", ID: LPStatus, Handler: func(string) string {
			return lpStatus(s)
		}},
		{Name: "nodes", Help: "dump the node cache", ID: LPNodes, Handler: func(string) string {
			return lpNodes(s)
		}},
		{Name: "connect", Help: "connect <host:port> — initiate an outbound handshake", ID: LPConnect, Handler: func(args string) string {
			return lpConnect(s, args)
		}},
		{Name: "disconnect", Help: "disconnect <session> — gracefully tear down a session", ID: LPDisconnect, Handler: func(args string) string {
			return lpDisconnect(s, args)
		}},
	})
}

func lpStatus(s *scheduler.Scheduler) string {
	var b strings.Builder
	info := s.Data().LinkInfo().Snapshot()
	fmt.Fprintf(&b, "link: sent=%d recv=%d tx=%s rx=%s\n",
		info.PacketsSent, info.PacketsReceived, formatBytes(info.Bytes.TXBytesTotal), formatBytes(info.Bytes.RXBytesTotal))

	sessions := s.Sessions()
	for i := 0; i < sessions.Len(); i++ {
		session := uint8(i)
		if sessions.State(session) == domain.SessionClosed {
			continue
		}
		var addr domain.NetworkAddress
		var foreign uint8
		sessions.With(session, func(sl *sessiontable.Slot) {
			addr = sl.Addr()
			foreign = sl.Foreign()
		})
		recv, sent, _ := sessions.Stats(session)
		fmt.Fprintf(&b, "session %3d  %-22s state=%-16s foreign=%-3d recv=%d sent=%d\n",
			session, addr.String(), sessions.State(session), foreign, recv, sent)
	}
	return b.String()
}

func lpNodes(s *scheduler.Scheduler) string {
	var b strings.Builder
	for _, e := range s.Cache().Snapshot() {
		fmt.Fprintf(&b, "%-22s %s\n", e.Addr.String(), e.State)
	}
	if b.Len() == 0 {
		return "(cache empty)\n"
	}
	return b.String()
}

func lpConnect(s *scheduler.Scheduler, args string) string {
	addr, err := domain.ParseNetworkAddress(strings.TrimSpace(args))
	if err != nil {
		return "usage: connect <host:port>"
	}
	if err := s.ConnectTo(addr); err != nil {
		return "error: " + err.Error()
	}
	return "connecting to " + addr.String()
}

func lpDisconnect(s *scheduler.Scheduler, args string) string {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 0 || n > 255 {
		return "usage: disconnect <session>"
	}
	if err := s.Disconnect(uint8(n)); err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("disconnecting session %d", n)
}

func formatBytes(n uint64) string {
	return strconv.FormatUint(n, 10) + "B"
}

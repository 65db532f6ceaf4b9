package console

import (
	"fmt"
	"strings"

	"kurupira/domain"
	"kurupira/infrastructure/np/handshake"
	"kurupira/infrastructure/np/routing"
)

// NP command IDs, stable across the console transport (SPEC_FULL §4).
const (
	NPRoute = iota + 1 // route <peer-id-hex> — dump history
	NPPeers            // peers — routing table dump
	NPConnect          // connect <peer-id-hex>
)

// NPCommands returns the Network Protocol's console command table: route,
// peers, connect (SPEC_FULL §4, "SUPPLEMENTED FEATURES").
func NPCommands(table *routing.Table, hs *handshake.Engine) Registry {
	return NewRegistry([]Command{
		{Name: "route", Help: "route <peer-id-hex> — dump a peer's routing history", ID: NPRoute, Handler: func(args string) string {
			return npRoute(table, args)
		}},
		{Name: "peers", Help: "dump the routing table", ID: NPPeers, Handler: func(string) string {
			return npPeers(table)
		}},
		{Name: "connect", Help: "connect <peer-id-hex> — initiate an end-to-end handshake", ID: NPConnect, Handler: func(args string) string {
			return npConnect(hs, args)
		}},
	})
}

func npRoute(table *routing.Table, args string) string {
	id, err := domain.ParsePeerID(strings.TrimSpace(args))
	if err != nil {
		return "usage: route <peer-id-hex>"
	}
	entry, _, found := table.Lookup(id)
	if !found {
		return "no routing entry for " + id.String()
	}
	entry.Lock()
	defer entry.Unlock()
	if !entry.Used() {
		return "no routing entry for " + id.String()
	}
	history := entry.History()
	if len(history) == 0 {
		return id.String() + ": (no history)\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", id.String())
	for _, session := range history {
		fmt.Fprintf(&b, " %d", session)
	}
	b.WriteByte('\n')
	return b.String()
}

func npPeers(table *routing.Table) string {
	peers := table.Peers()
	if len(peers) == 0 {
		return "(no known peers)\n"
	}
	var b strings.Builder
	for _, id := range peers {
		fmt.Fprintf(&b, "%s\n", id.String())
	}
	return b.String()
}

func npConnect(hs *handshake.Engine, args string) string {
	id, err := domain.ParsePeerID(strings.TrimSpace(args))
	if err != nil {
		return "usage: connect <peer-id-hex>"
	}
	if err := hs.Connect(id); err != nil {
		return "error: " + err.Error()
	}
	return "connected to " + id.String()
}

// Package config implements the parsed configuration value objects LP and
// NP consume (spec §6). The textual parser itself is an external
// collaborator (spec §1 "Out of scope"); this package only defines the
// value object, loads it from a JSON file the way the teacher's
// infrastructure/PAL/configuration/server package loads its Configuration
// (os.ReadFile + json.Unmarshal, defaults filled in on any zero field,
// parse errors logged and defaulted rather than fatal — spec §7
// "Configuration" error class).
package config

import "time"

// LP holds the Link Protocol's configuration (spec §6 table).
type LP struct {
	Port              int    `json:"port"`
	MinConnections    int    `json:"min_connections"`
	MaxConnections    int    `json:"max_connections"`
	CacheSize         int    `json:"cache_size"`
	ExpirationTime    int    `json:"expiration_time"` // seconds
	StaticNodesFile   string `json:"static_nodes_file"`
	RecentNodesFile   string `json:"recent_nodes_file"`
	CipherList        string `json:"cipher_list"`
	HashList          string `json:"hash_list"`
	MacList           string `json:"mac_list"`
	ReceiveBufferSize int    `json:"receive_buffer_size"` // SO_RCVBUF, bytes
}

// DefaultLP returns the spec's documented defaults (spec §6 table).
func DefaultLP() LP {
	return LP{
		Port:            2357,
		MinConnections:  10,
		MaxConnections:  100,
		CacheSize:       100,
		ExpirationTime:  86400,
		StaticNodesFile: "llp.static",
		RecentNodesFile: "llp.recent",
		CipherList:      "blowfish-cbc",
		HashList:        "sha1",
		MacList:         "sha1-mac",
		ReceiveBufferSize: 1 << 20,
	}
}

// EnsureDefaults fills any zero-valued field of lp from DefaultLP(),
// mirroring the teacher's Configuration.EnsureDefaults pass.
func (lp *LP) EnsureDefaults() {
	d := DefaultLP()
	if lp.Port == 0 {
		lp.Port = d.Port
	}
	if lp.MinConnections == 0 {
		lp.MinConnections = d.MinConnections
	}
	if lp.MaxConnections == 0 {
		lp.MaxConnections = d.MaxConnections
	}
	if lp.CacheSize == 0 {
		lp.CacheSize = d.CacheSize
	}
	if lp.ExpirationTime == 0 {
		lp.ExpirationTime = d.ExpirationTime
	}
	if lp.StaticNodesFile == "" {
		lp.StaticNodesFile = d.StaticNodesFile
	}
	if lp.RecentNodesFile == "" {
		lp.RecentNodesFile = d.RecentNodesFile
	}
	if lp.CipherList == "" {
		lp.CipherList = d.CipherList
	}
	if lp.HashList == "" {
		lp.HashList = d.HashList
	}
	if lp.MacList == "" {
		lp.MacList = d.MacList
	}
	if lp.ReceiveBufferSize == 0 {
		lp.ReceiveBufferSize = d.ReceiveBufferSize
	}
}

// Tick is LP's timer quantum (spec §3 "LP protocol constants").
const Tick = 500 * time.Millisecond

// MTU is the maximum LP wire packet size in bytes (spec §3).
const MTU = 512

// MaxSessions is LLP_MAX_SESSIONS: session numbers are one byte on the
// wire, so this can never exceed 256 (spec §3).
const MaxSessions = 256

// TSilentTicks is LLP_T_SILENT: idle ticks before a keep-alive is sent.
const TSilentTicks = 20 // 10s at a 500ms tick

// TTimeoutTicks is LLP_T_TIMEOUT: idle ticks before a session is declared
// dead.
const TTimeoutTicks = 40 // 20s at a 500ms tick

// MinPaddingLength is LLP_MIN_PADDING_LENGTH (spec §4.7).
const MinPaddingLength = 4

// XLength is LLP_X_LENGTH, the byte length of the DH private exponent
// (spec §4.6).
const XLength = 32

// HuntValidityTicks bounds how long a HUNT_RESULT is accepted after we
// last sent a NODE_HUNT on that session (spec §4.7 "only if our last hunt
// request on this session has not expired"); the spec names no distinct
// constant for this window, so it is pinned to the same horizon as a dead
// session (TTimeoutTicks) — see DESIGN.md.
const HuntValidityTicks = TTimeoutTicks

// MonitorTickPeriod is the number of scheduler ticks between monitor-thread
// runs (spec §4.8 "every 10 ticks").
const MonitorTickPeriod = 10

// HuntSampleMax bounds the number of addresses returned by a NODE_HUNT
// reply: spec §4.7 says "uniformly 1..N, where N = MTU / per-addr-size".
const HuntSampleMax = MTU / 7


package config

import "time"

// NP holds the Network Protocol's configuration (spec §6 table).
type NP struct {
	KeyStoreSize   int    `json:"key_store_size"`
	PublicKeyFile  string `json:"public_key_file"`
	PrivateKeyFile string `json:"private_key_file"`
	CipherList     string `json:"cipher_list"`
	HashList       string `json:"hash_list"`
	MacList        string `json:"mac_list"`
}

// DefaultNP returns the spec's documented defaults.
func DefaultNP() NP {
	return NP{
		KeyStoreSize:   256,
		PublicKeyFile:  "public.key",
		PrivateKeyFile: "private.key",
		CipherList:     "blowfish-cbc",
		HashList:       "sha1",
		MacList:        "sha1-mac",
	}
}

// EnsureDefaults fills any zero-valued field of np from DefaultNP().
func (np *NP) EnsureDefaults() {
	d := DefaultNP()
	if np.KeyStoreSize == 0 {
		np.KeyStoreSize = d.KeyStoreSize
	}
	if np.PublicKeyFile == "" {
		np.PublicKeyFile = d.PublicKeyFile
	}
	if np.PrivateKeyFile == "" {
		np.PrivateKeyFile = d.PrivateKeyFile
	}
	if np.CipherList == "" {
		np.CipherList = d.CipherList
	}
	if np.HashList == "" {
		np.HashList = d.HashList
	}
	if np.MacList == "" {
		np.MacList = d.MacList
	}
}

// RoutingTableSize must leave at least one slot permanently unused so that
// every open-addressed probe chain terminates (spec §3, §4.10).
const RoutingTableSize = 1024

// HistorySize is the per-entry ring buffer capacity of learned LP sessions
// (spec §3, §4.10).
const HistorySize = 8

// DuplicateTableSize is the size of the packet-hash duplicate-suppression
// table (spec §4.10).
const DuplicateTableSize = 256

// HandshakeTimeout is LNP_T_HANDSHAKE (spec §4.10, §4.12).
const HandshakeTimeout = 30 * time.Second

// MinPaddingLength is LNP_MIN_PADDING_LENGTH (spec §4.13).
const MinPaddingLength = 4

// FTU is LIBFREEDOM_FTU: the maximum size of the LP DATAGRAM frame that
// must contain a whole NP DATA frame (spec §4.13). NP frames must fit
// inside an LP DATAGRAM's payload, which itself must fit LP's MTU once
// padded and MAC'd, so NP budgets against the same 512-byte ceiling.
const FTU = MTU

// KLength is LNP_K_LENGTH: the fixed size in bytes of each half (k_in,
// k_out) of NP's end-to-end shared-secret material (spec §3, §4.12).
const KLength = 32

// DefaultTTL seeds the TTL byte on NP packets this node originates. The
// original implementation carried the field but left it permanently zero
// and never enforced a hop limit (a known vestige, flagged by its own
// "// TODO: tirar ttl" comment); Kurupira decrements it on forward and
// drops at zero instead of carrying a dead field.
const DefaultTTL = 32

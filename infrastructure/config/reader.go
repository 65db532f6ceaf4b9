package config

import (
	"encoding/json"
	"os"
)

// Logger is the minimal logging surface config needs; satisfied by
// infrastructure/logging.StdLogger.
type Logger interface {
	Printf(format string, v ...any)
}

// ReadLP loads an LP configuration from a JSON file at path. Any error —
// missing file, unreadable file, invalid JSON — is logged as a warning and
// DefaultLP() (with EnsureDefaults applied) is returned instead; the
// module must never abort the process on a bad config (spec §6, §7).
func ReadLP(path string, log Logger) LP {
	lp := DefaultLP()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("lp: configuration file %q unreadable, using defaults: %v", path, err)
		return lp
	}
	if err := json.Unmarshal(data, &lp); err != nil {
		log.Printf("lp: configuration file %q invalid, using defaults: %v", path, err)
		return DefaultLP()
	}
	lp.EnsureDefaults()
	return lp
}

// ReadNP loads an NP configuration from a JSON file at path, with the same
// defaults-on-error contract as ReadLP.
func ReadNP(path string, log Logger) NP {
	np := DefaultNP()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("np: configuration file %q unreadable, using defaults: %v", path, err)
		return np
	}
	if err := json.Unmarshal(data, &np); err != nil {
		log.Printf("np: configuration file %q invalid, using defaults: %v", path, err)
		return DefaultNP()
	}
	np.EnsureDefaults()
	return np
}

package sessiontable

import (
	"kurupira/domain"
	"kurupira/infrastructure/cryptoregistry"
)

// The accessors below are only safe to call on a *Slot obtained inside a
// Table.With callback, which holds the slot's mutex for the call's
// duration (spec §5 "Always acquire session mutex before mutating session
// fields").

func (s *Slot) State() domain.SessionState   { return s.state }
func (s *Slot) SetState(v domain.SessionState) { s.state = v }

func (s *Slot) Addr() domain.NetworkAddress { return s.addr }

func (s *Slot) Foreign() uint8      { return s.foreign }
func (s *Slot) SetForeign(v uint8)  { s.foreign = v }

func (s *Slot) In() KeyMaterial        { return s.in }
func (s *Slot) SetIn(v KeyMaterial)    { s.in = v }
func (s *Slot) Out() KeyMaterial       { return s.out }
func (s *Slot) SetOut(v KeyMaterial)   { s.out = v }

func (s *Slot) Verifier() []byte     { return s.verifier }
func (s *Slot) SetVerifier(v []byte) { s.verifier = v }

func (s *Slot) HIn() []byte      { return s.hIn }
func (s *Slot) SetHIn(v []byte)  { s.hIn = v }
func (s *Slot) HOut() []byte     { return s.hOut }
func (s *Slot) SetHOut(v []byte) { s.hOut = v }
func (s *Slot) X() []byte        { return s.x }
func (s *Slot) SetX(v []byte)    { s.x = v }

func (s *Slot) LastHuntTick() int64     { return s.lastHuntTick }
func (s *Slot) SetLastHuntTick(v int64) { s.lastHuntTick = v }

func (s *Slot) PendingCipher() cryptoregistry.Cipher    { return s.pendingCipher }
func (s *Slot) SetPendingCipher(v cryptoregistry.Cipher) { s.pendingCipher = v }
func (s *Slot) PendingHash() cryptoregistry.Hash        { return s.pendingHash }
func (s *Slot) SetPendingHash(v cryptoregistry.Hash)    { s.pendingHash = v }
func (s *Slot) PendingMAC() cryptoregistry.MAC          { return s.pendingMAC }
func (s *Slot) SetPendingMAC(v cryptoregistry.MAC)      { s.pendingMAC = v }

func (s *Slot) ResetTimeout(ticks int) { s.timeout = ticks }

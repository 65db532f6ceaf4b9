package sessiontable

import "kurupira/domain"

// Actions is the set of side effects a tick callback may request; the
// scheduler (C8) carries them out after releasing the per-slot lock, since
// sending a keep-alive or closing a session must not happen while the slot
// mutex used internally by TickTimeouts/TickSilence is still held.
type Actions struct {
	CloseSessions       []uint8
	SendKeepAlive       []uint8
	ResendCloseRequest  []uint8
	GracefulDisconnects []uint8
}

// TickTimeouts implements spec §4.5 "tick_timeouts": for each non-CLOSED
// slot, decrement timeout; at zero, queue a close. For ESTABLISHED slots,
// also increment alive; once alive reaches the expiration threshold, queue a graceful
// disconnect instead of an abrupt close.
func (t *Table) TickTimeouts() Actions {
	var a Actions
	for i := range t.slots {
		s := &t.slots[i]
		s.mu.Lock()
		if s.state == domain.SessionClosed {
			s.mu.Unlock()
			continue
		}
		s.timeout--
		if s.timeout <= 0 {
			a.CloseSessions = append(a.CloseSessions, uint8(i))
			s.mu.Unlock()
			continue
		}
		if s.state == domain.SessionEstablished {
			s.alive++
			if s.alive >= t.expiration {
				a.GracefulDisconnects = append(a.GracefulDisconnects, uint8(i))
			}
		}
		s.mu.Unlock()
	}
	return a
}

// TickSilence implements spec §4.5 "tick_silence": increment silence; at
// LLP_T_SILENT, queue a keep-alive (ESTABLISHED) or a close-request resend
// (CLOSE_WAIT).
func (t *Table) TickSilence() Actions {
	var a Actions
	for i := range t.slots {
		s := &t.slots[i]
		s.mu.Lock()
		if s.state == domain.SessionClosed {
			s.mu.Unlock()
			continue
		}
		s.silence++
		if s.silence >= t.tSilent {
			switch s.state {
			case domain.SessionEstablished:
				a.SendKeepAlive = append(a.SendKeepAlive, uint8(i))
				s.silence = 0
			case domain.SessionCloseWait:
				a.ResendCloseRequest = append(a.ResendCloseRequest, uint8(i))
				s.silence = 0
			}
		}
		s.mu.Unlock()
	}
	return a
}

// ResetTimeout resets a slot's timeout counter to tTimeout and zeros its
// silence counter, the way receiving any valid LLP_DATA does (spec §4.7
// "Receiving any valid LLP_DATA resets timeout ... zeros silence").
// CLOSE_WAIT sessions are excluded per spec.
func (t *Table) ResetTimeout(session uint8) {
	if int(session) >= len(t.slots) {
		return
	}
	s := &t.slots[session]
	s.mu.Lock()
	if s.state != domain.SessionCloseWait {
		s.timeout = t.tTimeout
	}
	s.silence = 0
	s.packetsReceived++
	s.mu.Unlock()
}

// NoteSent increments the sent-packet counter for telemetry.
func (t *Table) NoteSent(session uint8) {
	if int(session) >= len(t.slots) {
		return
	}
	s := &t.slots[session]
	s.mu.Lock()
	s.packetsSent++
	s.mu.Unlock()
}

// Stats returns the packet counters for a slot, for presentation/console.
func (t *Table) Stats(session uint8) (received, sent uint64, ok bool) {
	if int(session) >= len(t.slots) {
		return 0, 0, false
	}
	s := &t.slots[session]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packetsReceived, s.packetsSent, true
}

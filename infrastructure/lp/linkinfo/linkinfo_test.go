package linkinfo

import "testing"

func TestLinkInfoCounters(t *testing.T) {
	li := New()

	li.NoteSent(100)
	li.NoteSent(50)
	li.NoteReceived(200)

	snap := li.Snapshot()
	if snap.PacketsSent != 2 {
		t.Errorf("PacketsSent = %d, want 2", snap.PacketsSent)
	}
	if snap.PacketsReceived != 1 {
		t.Errorf("PacketsReceived = %d, want 1", snap.PacketsReceived)
	}
	if snap.Bytes.TXBytesTotal != 150 {
		t.Errorf("TXBytesTotal = %d, want 150", snap.Bytes.TXBytesTotal)
	}
	if snap.Bytes.RXBytesTotal != 200 {
		t.Errorf("RXBytesTotal = %d, want 200", snap.Bytes.RXBytesTotal)
	}
}

package npframe

import (
	"testing"

	"kurupira/domain"
	"kurupira/infrastructure/wire"
)

func TestHeaderRoundTrip(t *testing.T) {
	var src, dst domain.PeerID
	src[0] = 0xAA
	dst[0] = 0xBB
	h := Header{Type: domain.NPData, TTL: 16, Src: src, Dst: dst, Flags: FlagRoutingError}

	buf := make([]byte, EncodedLen)
	w := wire.NewWriter(buf)
	if err := h.Encode(w); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := DecodeHeader(wire.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
	if !got.HasFlag(FlagRoutingError) {
		t.Fatal("HasFlag should report the routing-error bit")
	}
}

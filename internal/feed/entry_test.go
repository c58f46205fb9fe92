package feed

import (
	"testing"
	"time"
)

func TestEncodeDecodeEntry(t *testing.T) {
	in := Entry{
		Position:       7,
		Type:           "com.example.order",
		ID:             "123456",
		Operation:      OpPut,
		Created:        time.UnixMilli(1_700_000_000_123).UTC(),
		IdempotencyKey: "k-1",
		Data:           []byte(`{"total":42}`),
	}
	out, ok := DecodeEntry(7, EncodeEntry(in))
	if !ok {
		t.Fatalf("decode failed")
	}
	if out.Type != in.Type || out.ID != in.ID || out.Operation != OpPut ||
		out.IdempotencyKey != in.IdempotencyKey || string(out.Data) != string(in.Data) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.Created.Equal(in.Created) {
		t.Fatalf("created mismatch: %v != %v", out.Created, in.Created)
	}
}

func TestDecodeTombstone(t *testing.T) {
	in := Entry{Position: 1, Type: "t", ID: "x", Operation: OpDelete, Created: time.Now().UTC()}
	out, ok := DecodeEntry(1, EncodeEntry(in))
	if !ok {
		t.Fatalf("decode failed")
	}
	if !out.Tombstone() || out.Data != nil {
		t.Fatalf("tombstone mismatch: %+v", out)
	}
}

func TestDecodeDefaultsOperationToPut(t *testing.T) {
	in := Entry{Position: 1, Type: "t", ID: "x", Created: time.Now().UTC(), Data: []byte(`1`)}
	out, ok := DecodeEntry(1, EncodeEntry(in))
	if !ok {
		t.Fatalf("decode failed")
	}
	if out.Operation != OpPut {
		t.Fatalf("want default put, got %q", out.Operation)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	raw := EncodeEntry(Entry{Position: 1, Type: "t", ID: "x", Created: time.Now().UTC(), Data: []byte(`abc`)})
	raw[len(raw)-6] ^= 0xff
	if _, ok := DecodeEntry(1, raw); ok {
		t.Fatalf("corrupt record decoded")
	}
	if _, ok := DecodeEntry(1, raw[:3]); ok {
		t.Fatalf("truncated record decoded")
	}
}

package guestmem

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/errors"
)

// memModule is a minimal core module exporting a one-page memory as "mem":
//
//	(module (memory (export "mem") 1))
var memModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic + version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 memory, min 1 page
	0x07, 0x07, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00, // export "mem"
}

func newMemory(t *testing.T) api.Memory {
	t.Helper()
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	mod, err := r.Instantiate(ctx, memModule)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	mem := mod.ExportedMemory("mem")
	if mem == nil {
		t.Fatal("memory export missing")
	}
	return mem
}

func TestRegion_SnapshotAliasesGuestMemory(t *testing.T) {
	mem := newMemory(t)
	src := NewSource(mem)

	region := src.View(0x100, 8)
	data, err := region.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Fatalf("snapshot length: got %d", len(data))
	}

	// Host writes through the snapshot are guest-visible.
	data[0] = 0xAA
	got, ok := mem.ReadByte(0x100)
	if !ok || got != 0xAA {
		t.Fatalf("write did not reach guest memory: ok=%v got=%#x", ok, got)
	}

	// Guest writes are visible through the snapshot.
	if !mem.WriteByte(0x101, 0xBB) {
		t.Fatal("guest write failed")
	}
	if data[1] != 0xBB {
		t.Fatalf("guest write not visible: %#x", data[1])
	}
}

func TestRegion_Identity(t *testing.T) {
	mem := newMemory(t)
	src := NewSource(mem)

	a := src.View(0x10, 4)
	b := src.View(0x10, 4)
	c := src.View(0x20, 4)

	if a.BufferID() != b.BufferID() {
		t.Error("same region resolved to distinct identities")
	}
	if a.BufferID() == c.BufferID() {
		t.Error("distinct regions shared an identity")
	}

	other := NewSource(mem)
	if a.BufferID() == other.View(0x10, 4).BufferID() {
		t.Error("distinct sources shared an identity")
	}
}

func TestRegion_OutOfRange(t *testing.T) {
	mem := newMemory(t)
	src := NewSource(mem)

	size := mem.Size()

	tests := []struct {
		name   string
		ptr    uint32
		length uint32
		wantE  bool
	}{
		{"last byte", size - 1, 1, false},
		{"one past end", size, 1, true},
		{"straddles end", size - 4, 8, true},
		{"zero length at end", size, 0, false},
		{"zero length past end", size + 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.View(tt.ptr, tt.length).Snapshot()
			if tt.wantE && !errors.IsKind(err, errors.KindOutOfBounds) {
				t.Errorf("expected out_of_bounds, got %v", err)
			}
			if !tt.wantE && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegion_ZeroLengthSnapshot(t *testing.T) {
	mem := newMemory(t)
	src := NewSource(mem)

	data, err := src.View(0, 0).Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if data == nil {
		t.Error("zero-length snapshot must be non-nil")
	}
}

func TestRegion_Kind(t *testing.T) {
	mem := newMemory(t)
	region := NewSource(mem).View(0, 16)

	if region.Kind() != guestbuf.KindArrayView {
		t.Errorf("kind: got %v", region.Kind())
	}
	if region.Len() != 16 {
		t.Errorf("len: got %d", region.Len())
	}
}

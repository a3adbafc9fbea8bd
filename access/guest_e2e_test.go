package access

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/guestmem"
)

// memModule is a minimal core module exporting a one-page memory as "mem":
//
//	(module (memory (export "mem") 1))
var memModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic + version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 memory, min 1 page
	0x07, 0x07, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00, // export "mem"
}

func TestFacade_GuestMemoryEndToEnd(t *testing.T) {
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, memModule)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	mem := mod.ExportedMemory("mem")
	if mem == nil {
		t.Fatal("memory export missing")
	}

	src := guestmem.NewSource(mem)
	region := src.View(0x200, 16)

	reg, tbl := fresh()
	scope := EnterWith(reg, tbl)
	defer scope.Close()

	words := []uint32{6, 6000001, 4500, 421600}
	for i, w := range words {
		idx, val := uint32(i), w
		if _, err := scope.WithLock(region, 4, func(v *buffer.View, _ uint32) (any, error) {
			return nil, v.WriteU32(idx, val)
		}); err != nil {
			t.Fatalf("locked write %d: %v", i, err)
		}
	}

	// The writes are guest-visible in little-endian layout.
	for i, want := range words {
		got, ok := mem.ReadUint32Le(0x200 + uint32(i)*4)
		if !ok {
			t.Fatalf("guest read %d failed", i)
		}
		if got != want {
			t.Errorf("guest word %d: got %d, want %d", i, got, want)
		}
	}

	// And read back through a borrow guard on the same region.
	g, err := scope.Borrow(region)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	for i, want := range words {
		got, err := g.ReadU32(uint32(i))
		if err != nil {
			t.Fatalf("borrowed read %d: %v", i, err)
		}
		if got != want {
			t.Errorf("borrowed word %d: got %d, want %d", i, got, want)
		}
	}

	sum, err := g.Sum()
	if err != nil {
		t.Fatal(err)
	}
	var want uint64
	for i := 0; i < 16; i++ {
		b, _ := mem.ReadByte(0x200 + uint32(i))
		want += uint64(b)
	}
	if sum != want {
		t.Errorf("sum: got %d, want %d", sum, want)
	}
}

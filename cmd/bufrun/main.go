// Command bufrun exercises the guestbuf lock and borrow APIs against a wasm
// module's linear memory. With no module it instantiates a built-in one that
// only exports a one-page memory.
//
//	bufrun -write 0=6,1=6000001,2=4500,3=421600 -read
//	bufrun -wasm module.wasm -ptr 0x200 -len 64 -sum
//	bufrun -i   (interactive inspector)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/guestbuf/access"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/guestmem"
)

// memModule exports a single one-page memory as "mem".
var memModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x07, 0x01, 0x03, 'm', 'e', 'm', 0x02, 0x00,
}

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to a wasm module exporting a memory (default: built-in)")
		ptr         = flag.Uint("ptr", 0, "Region base offset in linear memory")
		length      = flag.Uint("len", 64, "Region length in bytes")
		writes      = flag.String("write", "", "Word writes under lock (index=value,index=value)")
		read        = flag.Bool("read", false, "Read the region's words through a shared borrow")
		sum         = flag.Bool("sum", false, "Sum the region's bytes through a shared borrow")
		inc         = flag.Bool("inc", false, "Increment every byte through an exclusive borrow")
		interactive = flag.Bool("i", false, "Interactive inspector")
	)
	flag.Parse()

	if err := run(*wasmFile, uint32(*ptr), uint32(*length), *writes, *read, *sum, *inc, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile string, ptr, length uint32, writes string, read, sum, inc, interactive bool) error {
	ctx := context.Background()

	bin := memModule
	if wasmFile != "" {
		data, err := os.ReadFile(wasmFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		bin = data
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	mem := exportedMemory(mod)
	if mem == nil {
		return fmt.Errorf("module has no memory")
	}

	region := guestmem.NewSource(mem).View(ptr, length)

	if interactive {
		return runInteractive(region, ptr, length)
	}

	if writes != "" {
		if err := applyWrites(region, writes); err != nil {
			return err
		}
	}
	if read {
		if err := dumpWords(region); err != nil {
			return err
		}
	}
	if sum {
		if err := printSum(region); err != nil {
			return err
		}
	}
	if inc {
		if err := incrementAll(region); err != nil {
			return err
		}
		fmt.Println("incremented every byte")
	}
	return nil
}

func exportedMemory(mod api.Module) api.Memory {
	if mem := mod.ExportedMemory("mem"); mem != nil {
		return mem
	}
	if mem := mod.ExportedMemory("memory"); mem != nil {
		return mem
	}
	return mod.Memory()
}

// applyWrites performs each index=value pair as its own locked write.
func applyWrites(region *guestmem.Region, spec string) error {
	scope := access.Enter()
	defer scope.Close()

	for _, pair := range strings.Split(spec, ",") {
		idxStr, valStr, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return fmt.Errorf("bad write %q, want index=value", pair)
		}
		idx, err := strconv.ParseUint(idxStr, 0, 32)
		if err != nil {
			return fmt.Errorf("bad index %q: %w", idxStr, err)
		}
		val, err := strconv.ParseUint(valStr, 0, 32)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", valStr, err)
		}

		if _, err := scope.WithLock(region, 4, func(v *buffer.View, _ uint32) (any, error) {
			return nil, v.WriteU32(uint32(idx), uint32(val))
		}); err != nil {
			return err
		}
		fmt.Printf("word[%d] <- %d\n", idx, val)
	}
	return nil
}

func dumpWords(region *guestmem.Region) error {
	scope := access.Enter()
	defer scope.Close()

	g, err := scope.Borrow(region)
	if err != nil {
		return err
	}
	defer g.Release()

	words := g.Len() / 4
	for i := uint32(0); i < words; i++ {
		w, err := g.ReadU32(i)
		if err != nil {
			return err
		}
		fmt.Printf("word[%d] = %d (0x%08x)\n", i, w, w)
	}
	return nil
}

func printSum(region *guestmem.Region) error {
	scope := access.Enter()
	defer scope.Close()

	g, err := scope.Borrow(region)
	if err != nil {
		return err
	}
	defer g.Release()

	total, err := g.Sum()
	if err != nil {
		return err
	}
	fmt.Printf("sum = %d over %d bytes\n", total, g.Len())
	return nil
}

func incrementAll(region *guestmem.Region) error {
	scope := access.Enter()
	defer scope.Close()

	g, err := scope.BorrowMut(region)
	if err != nil {
		return err
	}
	defer g.Release()

	return g.IncrementAll()
}

package access

import (
	"sync"
	"testing"

	"github.com/wippyai/guestbuf"
	"github.com/wippyai/guestbuf/borrow"
	"github.com/wippyai/guestbuf/buffer"
	"github.com/wippyai/guestbuf/errors"
	"github.com/wippyai/guestbuf/fixedbuf"
	"github.com/wippyai/guestbuf/lock"
)

// scalar is a runtime value that is not a buffer.
type scalar struct{}

func (scalar) Kind() guestbuf.Kind { return guestbuf.KindUnknown }

// fresh gives each test its own registry and borrow table so process-wide
// state does not couple tests.
func fresh() (*lock.Registry, *borrow.Table) {
	return lock.NewRegistry(), borrow.NewTable()
}

func TestWithLock_WriteReadWords(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(16)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	words := []uint32{6, 6000001, 4500, 421600}

	// Four sequential locked writes, one word each.
	for i, w := range words {
		idx, val := uint32(i), w
		if _, err := scope.WithLock(buf, 4, func(v *buffer.View, elements uint32) (any, error) {
			if elements != 4 {
				t.Errorf("element count: got %d, want 4", elements)
			}
			return nil, v.WriteU32(idx, val)
		}); err != nil {
			t.Fatalf("locked write %d: %v", i, err)
		}
	}

	// Read back under lock.
	for i, want := range words {
		idx := uint32(i)
		got, err := scope.WithLock(buf, 4, func(v *buffer.View, _ uint32) (any, error) {
			return v.ReadU32(idx)
		})
		if err != nil {
			t.Fatalf("locked read %d: %v", i, err)
		}
		if got.(uint32) != want {
			t.Errorf("word %d via lock: got %d, want %d", i, got, want)
		}
	}

	// Read back through a borrow guard: same values, same byte order.
	g, err := scope.Borrow(buf)
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
			t.Errorf("word %d via borrow: got %d, want %d", i, got, want)
		}
	}
	// 6 little-endian is {6,0,0,0}.
	if b, _ := g.ReadU8(0); b != 6 {
		t.Errorf("byte 0: got %d, want 6", b)
	}
}

func TestWithLock_Serialization(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	const workers = 6
	const rounds = 100

	var inCritical int32
	var wg sync.WaitGroup
	violations := make(chan int32, workers*rounds)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				scope := EnterWith(reg, tbl)
				_, err := scope.WithLock(buf, 1, func(v *buffer.View, _ uint32) (any, error) {
					inCritical++
					if inCritical != 1 {
						violations <- inCritical
					}
					inCritical--
					return nil, nil
				})
				scope.Close()
				if err != nil {
					t.Errorf("WithLock: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(violations)

	for v := range violations {
		t.Fatalf("lock callbacks interleaved: %d concurrent holders", v)
	}
}

func TestWithLock_Reentrancy(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	_, err := scope.WithLock(buf, 4, func(v *buffer.View, _ uint32) (any, error) {
		// Re-entering the same lock from the same call must fail fast, not
		// deadlock.
		_, err := scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
			t.Error("reentrant critical section ran")
			return nil, nil
		})
		return nil, err
	})
	if !errors.IsKind(err, errors.KindReentrancy) {
		t.Fatalf("expected reentrancy, got %v", err)
	}

	// The outer release must have happened despite the inner failure.
	if _, err := scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("lock unusable after reentrancy failure: %v", err)
	}
}

func TestWithLock_ReleasesOnCallbackError(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	wantErr := errors.New(errors.PhaseAccess, errors.KindOutOfBounds).Detail("synthetic").Build()
	_, err := scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Fatalf("callback error not propagated: %v", err)
	}

	// Lock and borrow state must both be free again.
	g, err := scope.BorrowMut(buf)
	if err != nil {
		t.Fatalf("state not released after callback error: %v", err)
	}
	_ = g.Release()
}

func TestWithLock_ReleasesOnCallbackPanic(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic did not propagate")
			}
		}()
		_, _ = scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
			panic("callback exploded")
		})
	}()

	if _, err := scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("lock unusable after callback panic: %v", err)
	}
}

func TestWithLock_ConflictsWithOutstandingGuard(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	g, err := scope.Borrow(buf)
	if err != nil {
		t.Fatal(err)
	}

	// A lock cannot wait out a guard held by its own goroutine; it fails.
	_, err = scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		t.Error("critical section ran under an outstanding guard")
		return nil, nil
	})
	if !errors.IsKind(err, errors.KindBorrowConflict) {
		t.Fatalf("expected borrow_conflict, got %v", err)
	}

	if err := g.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := scope.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("lock after guard release: %v", err)
	}
}

func TestBorrow_ConflictsWithHeldLock(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	outer := EnterWith(reg, tbl)
	defer outer.Close()

	_, err := outer.WithLock(buf, 4, func(*buffer.View, uint32) (any, error) {
		// A nested call borrowing during the critical section must fail,
		// not observe the locked buffer.
		nested := EnterWith(reg, tbl)
		defer nested.Close()

		if _, err := nested.Borrow(buf); !errors.IsKind(err, errors.KindBorrowConflict) {
			t.Errorf("shared borrow during lock: got %v", err)
		}
		if _, err := nested.BorrowMut(buf); !errors.IsKind(err, errors.KindBorrowConflict) {
			t.Errorf("exclusive borrow during lock: got %v", err)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBorrow_SharedThenExclusive(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	defer scope.Close()

	g1, err := scope.Borrow(buf)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := scope.Borrow(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scope.BorrowMut(buf); !errors.IsKind(err, errors.KindBorrowConflict) {
		t.Fatalf("exclusive with shared outstanding: got %v", err)
	}

	_ = g1.Release()
	_ = g2.Release()

	g3, err := scope.BorrowMut(buf)
	if err != nil {
		t.Fatalf("exclusive after releases: %v", err)
	}
	_ = g3.Release()
}

func TestScope_CloseForceReleasesGuards(t *testing.T) {
	reg, tbl := fresh()
	buf := fixedbuf.New(8)

	scope := EnterWith(reg, tbl)
	g, err := scope.Borrow(buf)
	if err != nil {
		t.Fatal(err)
	}

	scope.Close()

	// The guard is dead and its hold is gone. Force-release consumes the
	// guard, so it reports released rather than scope_closed.
	if _, err := g.ReadU8(0); !errors.IsKind(err, errors.KindReleased) && !errors.IsKind(err, errors.KindScopeClosed) {
		t.Errorf("guard alive after scope close: %v", err)
	}

	next := EnterWith(reg, tbl)
	defer next.Close()
	g2, err := next.BorrowMut(buf)
	if err != nil {
		t.Fatalf("borrow state leaked across scope close: %v", err)
	}
	_ = g2.Release()
}

func TestScope_CloseIdempotent(t *testing.T) {
	scope := EnterWith(fresh())
	scope.Close()
	scope.Close()

	if scope.Active() {
		t.Error("scope active after close")
	}
	if _, err := scope.Resolve(fixedbuf.New(4)); !errors.IsKind(err, errors.KindScopeClosed) {
		t.Errorf("resolve after close: %v", err)
	}
	if _, err := scope.WithLock(fixedbuf.New(4), 4, nil); !errors.IsKind(err, errors.KindScopeClosed) {
		t.Errorf("WithLock after close: %v", err)
	}
}

func TestWithLock_RejectsNonBuffer(t *testing.T) {
	scope := EnterWith(fresh())
	defer scope.Close()

	if _, err := scope.WithLock(scalar{}, 4, nil); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("expected type_mismatch, got %v", err)
	}
	if _, err := scope.Borrow(scalar{}); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("borrow: expected type_mismatch, got %v", err)
	}
}

func TestWithLock_RejectsBadWidth(t *testing.T) {
	scope := EnterWith(fresh())
	defer scope.Close()

	for _, w := range []uint32{0, 3, 5, 16} {
		if _, err := scope.WithLock(fixedbuf.New(8), w, nil); !errors.IsKind(err, errors.KindTypeMismatch) {
			t.Errorf("width %d: expected type_mismatch, got %v", w, err)
		}
	}
}

func TestWithLock_ElementCount(t *testing.T) {
	scope := EnterWith(fresh())
	defer scope.Close()

	buf := fixedbuf.New(10)
	counts := map[uint32]uint32{1: 10, 2: 5, 4: 2, 8: 1}
	for width, want := range counts {
		w := width
		got, err := scope.WithLock(buf, w, func(_ *buffer.View, elements uint32) (any, error) {
			return elements, nil
		})
		if err != nil {
			t.Fatalf("width %d: %v", w, err)
		}
		if got.(uint32) != want {
			t.Errorf("width %d: got %d elements, want %d", w, got, want)
		}
	}
}

func TestFacade_EmptyBuffer(t *testing.T) {
	scope := EnterWith(fresh())
	defer scope.Close()

	empty := fixedbuf.New(0)

	got, err := scope.WithLock(empty, 1, func(v *buffer.View, elements uint32) (any, error) {
		if elements != 0 {
			t.Errorf("element count on empty buffer: %d", elements)
		}
		return v.Sum(), nil
	})
	if err != nil {
		t.Fatalf("lock on empty buffer: %v", err)
	}
	if got.(uint64) != 0 {
		t.Errorf("empty sum: got %d", got)
	}

	g, err := scope.BorrowMut(empty)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	if err := g.IncrementAll(); err != nil {
		t.Errorf("IncrementAll on empty buffer: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("empty buffer grew: %d", g.Len())
	}
	if _, err := g.ReadU8(0); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("indexed read on empty buffer: %v", err)
	}
}

func TestEnter_ProcessWideDefaults(t *testing.T) {
	buf := fixedbuf.New(8)

	scope := Enter()
	defer scope.Close()

	before := lock.Default().Len()
	if _, err := scope.WithLock(buf, 4, func(v *buffer.View, _ uint32) (any, error) {
		return nil, v.WriteU32(0, 7)
	}); err != nil {
		t.Fatal(err)
	}
	if lock.Default().Len() != before+1 {
		t.Errorf("default registry did not grow: %d -> %d", before, lock.Default().Len())
	}

	g, err := scope.Borrow(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	if w, _ := g.ReadU32(0); w != 7 {
		t.Errorf("read through default table: got %d", w)
	}
}

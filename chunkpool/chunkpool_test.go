package chunkpool

import (
	"sync"
	"testing"
	"unsafe"
)

func newChunks(n int) []unsafe.Pointer {
	buf := make([][8]byte, n)
	out := make([]unsafe.Pointer, n)
	for i := range buf {
		out[i] = unsafe.Pointer(&buf[i])
	}
	return out
}

func TestPushTryPopLIFO(t *testing.T) {
	p := &Pool{}
	chunks := newChunks(3)

	for _, c := range chunks {
		p.Push(c)
	}

	for i := len(chunks) - 1; i >= 0; i-- {
		got := p.TryPop()
		if got != chunks[i] {
			t.Fatalf("expected LIFO order: got %p want %p", got, chunks[i])
		}
	}

	if !p.IsEmpty() {
		t.Fatal("pool should be empty after draining all pushed chunks")
	}
	if p.TryPop() != nil {
		t.Fatal("TryPop on empty pool must return nil")
	}
}

func TestTakeAllDetachesWholeChain(t *testing.T) {
	p := &Pool{}
	chunks := newChunks(5)
	for _, c := range chunks {
		p.Push(c)
	}

	head := p.TakeAll()
	if !p.IsEmpty() {
		t.Fatal("pool must be empty immediately after TakeAll")
	}
	if head == nil {
		t.Fatal("TakeAll returned nil for a non-empty pool")
	}
}

func TestMergePrependsChain(t *testing.T) {
	dst := &Pool{}
	src := &Pool{}

	dstChunks := newChunks(2)
	srcChunks := newChunks(3)
	for _, c := range dstChunks {
		dst.Push(c)
	}
	for _, c := range srcChunks {
		src.Push(c)
	}

	dst.Merge(src.TakeAll())

	count := 0
	for dst.TryPop() != nil {
		count++
	}
	if count != len(dstChunks)+len(srcChunks) {
		t.Fatalf("merged pool should hold %d chunks, drained %d", len(dstChunks)+len(srcChunks), count)
	}
}

func TestSynchronizedPoolConcurrentPushPop(t *testing.T) {
	p := NewSynchronized()
	const total = 4000
	chunks := newChunks(total)

	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(c unsafe.Pointer) {
			defer wg.Done()
			p.Push(c)
		}(c)
	}
	wg.Wait()

	seen := make(map[unsafe.Pointer]struct{}, total)
	var mu sync.Mutex
	var wg2 sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg2.Add(1)
		go func() {
			defer wg2.Done()
			for {
				c := p.TryPop()
				if c == nil {
					return
				}
				mu.Lock()
				seen[c] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg2.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d chunks drained exactly once, got %d", total, len(seen))
	}
}

package octalloc

import (
	"sync"
	"testing"
	"unsafe"

	"octree/chunkarena"
	"octree/chunkpool"
)

func TestAllocateRefillsFromArena(t *testing.T) {
	a := New(4*RefillBatch*chunkarena.ChunkSize, 1)

	seen := make(map[unsafe.Pointer]struct{})
	for i := 0; i < RefillBatch*2; i++ {
		p, err := a.Allocate(0, false)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if _, dup := seen[p]; dup {
			t.Fatalf("same chunk handed out twice: %p", p)
		}
		seen[p] = struct{}{}
	}
}

func TestDeallocateThenAllocateReuses(t *testing.T) {
	a := New(4*RefillBatch*chunkarena.ChunkSize, 1)

	p, err := a.Allocate(0, false)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	a.Deallocate(0, p)

	p2, err := a.Allocate(0, false)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if p2 != p {
		t.Fatalf("expected the just-freed chunk to come back first (LIFO local pool), got %p want %p", p2, p)
	}
}

func TestAddPoolsFeedsStarvedWorkers(t *testing.T) {
	a := New(RefillBatch*chunkarena.ChunkSize, 2)

	// Drain worker 0's arena-backed local pool entirely.
	for i := 0; i < RefillBatch; i++ {
		if _, err := a.Allocate(0, false); err != nil {
			t.Fatalf("Allocate: %v", err)
		}
	}
	// Arena is now exhausted; worker 0 has nothing local and nothing to fall
	// back to until pools are added.
	if _, err := a.Allocate(0, false); err == nil {
		t.Fatal("expected out-of-memory before AddPools")
	}

	donated := chunkpool.Pool{}
	buf := make([][8]byte, 3)
	for i := range buf {
		donated.Push(unsafe.Pointer(&buf[i]))
	}

	if err := a.AddPools([]*chunkpool.Pool{&donated}); err != nil {
		t.Fatalf("AddPools: %v", err)
	}

	p, err := a.Allocate(0, false)
	if err != nil {
		t.Fatalf("Allocate after AddPools: %v", err)
	}
	if p == nil {
		t.Fatal("expected a chunk reclaimed from the donated pool")
	}
}

func TestPrepareGCResetsOffsetAndRepublishesFlag(t *testing.T) {
	a := New(RefillBatch*chunkarena.ChunkSize, 1)

	donated := chunkpool.Pool{}
	buf := make([][8]byte, 1)
	donated.Push(unsafe.Pointer(&buf[0]))
	if err := a.AddPools([]*chunkpool.Pool{&donated}); err != nil {
		t.Fatalf("AddPools: %v", err)
	}

	if !a.locals[0].poolsNotEmpty {
		t.Fatal("expected poolsNotEmpty after AddPools on an empty bank")
	}

	// Consume the one donated pool.
	if _, err := a.Allocate(0, false); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	a.PrepareGC()

	if a.poolOffset.Load() != 0 {
		t.Fatalf("PrepareGC must reset poolOffset to 0, got %d", a.poolOffset.Load())
	}
	if a.locals[0].poolsNotEmpty {
		t.Fatal("poolsNotEmpty must be cleared once the bank is drained")
	}
}

func TestAllocateConcurrentWorkersNoOverlap(t *testing.T) {
	const workers = 8
	const perWorker = 2000
	// Arena refills come RefillBatch chunks at a time, so each worker draws
	// perWorker rounded up to a whole number of batches.
	const perWorkerChunks = (perWorker + RefillBatch - 1) / RefillBatch * RefillBatch
	a := New(workers*perWorkerChunks*chunkarena.ChunkSize, workers)

	results := make([][]unsafe.Pointer, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			out := make([]unsafe.Pointer, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				p, err := a.Allocate(uint32(w), true)
				if err != nil {
					t.Error(err)
					return
				}
				out = append(out, p)
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	seen := make(map[unsafe.Pointer]struct{}, workers*perWorker)
	for _, out := range results {
		for _, p := range out {
			if _, dup := seen[p]; dup {
				t.Fatalf("chunk handed out to two workers: %p", p)
			}
			seen[p] = struct{}{}
		}
	}
}

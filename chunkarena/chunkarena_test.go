package chunkarena

import (
	"testing"
	"unsafe"
)

func TestAllocateChunksSequential(t *testing.T) {
	a := New(4 * ChunkSize)

	p0, err := a.AllocateChunks(1, false)
	if err != nil {
		t.Fatalf("AllocateChunks: %v", err)
	}
	p1, err := a.AllocateChunks(1, false)
	if err != nil {
		t.Fatalf("AllocateChunks: %v", err)
	}

	if uintptr(p1)-uintptr(p0) != ChunkSize {
		t.Fatalf("expected contiguous chunks %d bytes apart, got %d", ChunkSize, uintptr(p1)-uintptr(p0))
	}
}

func TestAllocateChunksOutOfMemory(t *testing.T) {
	a := New(2 * ChunkSize)

	if _, err := a.AllocateChunks(2, false); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := a.AllocateChunks(1, false); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestAllocateChunksAlignment(t *testing.T) {
	a := New(8 * ChunkSize)
	if uintptr(unsafe.Pointer(&a.data[0]))%ChunkSize != 0 {
		t.Fatal("arena buffer is not cache-line aligned")
	}
}

func TestAllocateChunksSynchronizedConcurrent(t *testing.T) {
	const workers, perWorker = 8, 1000
	a := New(workers * perWorker * ChunkSize)

	seen := make(chan uintptr, workers*perWorker)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				p, err := a.AllocateChunks(1, true)
				if err != nil {
					t.Error(err)
					return
				}
				seen <- uintptr(p)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(seen)

	unique := make(map[uintptr]struct{}, workers*perWorker)
	for p := range seen {
		if _, dup := unique[p]; dup {
			t.Fatalf("concurrent allocation handed out the same chunk twice: %#x", p)
		}
		unique[p] = struct{}{}
	}
	if len(unique) != workers*perWorker {
		t.Fatalf("expected %d unique chunks, got %d", workers*perWorker, len(unique))
	}
}

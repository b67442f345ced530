package wire

import (
	"strconv"
	"strings"
	"sync"
	"testing"
)

// TestTagsAreUnique tests that tags are pairwise distinct and the embedded
// epoch strictly increases
func TestTagsAreUnique(t *testing.T) {
	g := NewTagGenerator()

	seen := make(map[string]bool)
	lastEpoch := uint64(0)

	for i := 0; i < 1000; i++ {
		tag := g.Next(i%2 == 0)

		if seen[tag] {
			t.Fatalf("Duplicate tag generated: %s", tag)
		}
		seen[tag] = true

		parts := strings.Split(tag, ".--")
		if len(parts) != 2 {
			t.Fatalf("Malformed tag: %s", tag)
		}

		epoch, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			t.Fatalf("Malformed epoch in tag %s: %v", tag, err)
		}
		if epoch <= lastEpoch {
			t.Fatalf("Epoch did not increase: %d after %d", epoch, lastEpoch)
		}
		lastEpoch = epoch
	}

	if g.Epoch() != 1000 {
		t.Errorf("Expected epoch 1000, got %d", g.Epoch())
	}
}

// TestShortTagTruncatesTimestamp tests the long flag
func TestShortTagTruncatesTimestamp(t *testing.T) {
	g := NewTagGenerator()

	short := g.Next(false)
	long := g.Next(true)

	shortTS := strings.Split(short, ".--")[0]
	longTS := strings.Split(long, ".--")[0]

	if len(shortTS) > 3 {
		t.Errorf("Expected truncated timestamp in short tag, got %s", shortTS)
	}
	if len(longTS) < 10 {
		t.Errorf("Expected full timestamp in long tag, got %s", longTS)
	}
}

// TestConcurrentTagGeneration tests uniqueness under concurrent callers
func TestConcurrentTagGeneration(t *testing.T) {
	g := NewTagGenerator()

	const numWorkers = 8
	const tagsPerWorker = 500

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < tagsPerWorker; i++ {
				tag := g.Next(false)

				mu.Lock()
				if seen[tag] {
					t.Errorf("Duplicate tag generated: %s", tag)
				}
				seen[tag] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if g.Epoch() != numWorkers*tagsPerWorker {
		t.Errorf("Expected epoch %d, got %d", numWorkers*tagsPerWorker, g.Epoch())
	}
}

package alloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocAligns(t *testing.T) {
	a := New(45)
	assert.Equal(t, uint64(48), a.Alloc(10))
	assert.Equal(t, uint64(64), a.Alloc(3))
	assert.Equal(t, uint64(67), a.EOF())

	a.Release(48, 10)
	s := a.Stats()
	assert.Equal(t, 2, s.Blocks)
	assert.Equal(t, uint64(13), s.Allocated)
	assert.Equal(t, uint64(10), s.Released)
}

func TestAllocConcurrent(t *testing.T) {
	a := New(0)
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- a.Alloc(8)
		}()
	}
	wg.Wait()
	close(seen)

	addrs := make(map[uint64]bool)
	for addr := range seen {
		assert.False(t, addrs[addr], "address %d handed out twice", addr)
		addrs[addr] = true
	}
	assert.Equal(t, uint64(800), a.EOF())
}

package alloc

import "sync"

// align is the boundary every block starts on.
const align = 8

// Stats summarizes allocator activity.
type Stats struct {
	Blocks    int    // blocks handed out
	Allocated uint64 // bytes handed out
	Released  uint64 // bytes given back through Release
}

// Allocator appends blocks at the end of the file. Released space is
// counted but never reused; rewriting the file into a new one reclaims it.
type Allocator struct {
	mu    sync.Mutex
	eof   uint64
	stats Stats
}

// New returns an allocator whose first block starts at or after eof.
func New(eof uint64) *Allocator {
	return &Allocator{eof: eof}
}

// Alloc reserves n bytes and returns their address.
func (a *Allocator) Alloc(n uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r := a.eof % align; r != 0 {
		a.eof += align - r
	}
	addr := a.eof
	a.eof += n
	a.stats.Blocks++
	a.stats.Allocated += n
	return addr
}

// Release records that n bytes at addr are no longer referenced.
func (a *Allocator) Release(addr, n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Released += n
}

// EOF returns the end of the allocated space.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

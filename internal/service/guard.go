package service

import "sync"

// StoreGuard is the single serialization boundary for every mutation of the
// flat-file stores. One instance is shared by all services that write them,
// so a booking is atomic with respect to cancellations, schedule edits, and
// patient updates. Reads never take the guard; they observe the last
// committed snapshot.
type StoreGuard struct {
	mu sync.Mutex
}

func (g *StoreGuard) Lock()   { g.mu.Lock() }
func (g *StoreGuard) Unlock() { g.mu.Unlock() }

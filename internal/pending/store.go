// Package pending holds proposed-but-unexecuted write operations awaiting
// human confirmation.
//
// The store is modeled as an injected interface with atomic take-and-delete
// semantics: a confirmation consumes its operation exactly once, before the
// execution is dispatched, so a concurrent duplicate confirmation observes an
// empty slot and falls through to plain-text handling. The in-process
// implementation below satisfies the interface for a single instance; a
// shared store (e.g. a table with a conditional delete) can replace it
// without touching callers.
package pending

import (
	"sync"
	"time"

	"github.com/tbourn/go-wa-assistant/internal/catalog"
)

// Operation is a planned write waiting for confirmation, keyed externally by
// its short operation key.
type Operation struct {
	Tenant       string
	Conversation string
	Mode         string
	Template     catalog.Template
	Params       map[string]any
	DBURL        string
}

// Store is the pending-operation state machine contract.
type Store interface {
	// Put records op under key, replacing any previous proposal for the
	// same key (identical inputs hash to the same key, so this is the
	// idempotent re-proposal case).
	Put(key string, op Operation)

	// Take atomically removes and returns the operation for key, but only
	// when the stored tenant and conversation both match the caller's. An
	// ownership mismatch leaves the record in place and returns false, as
	// does an unknown or expired key.
	Take(key, tenant, conversation string) (Operation, bool)
}

type entry struct {
	op      Operation
	created time.Time
}

// MemStore is the single-process implementation: a mutex-guarded map with a
// bounded lifetime per entry and a size cap.
type MemStore struct {
	mu  sync.Mutex
	ops map[string]entry

	ttl time.Duration
	max int

	now func() time.Time // test seam
}

// NewMemStore builds a MemStore. ttl <= 0 defaults to 15 minutes; max <= 0
// defaults to 1000 entries.
func NewMemStore(ttl time.Duration, max int) *MemStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if max <= 0 {
		max = 1000
	}
	return &MemStore{
		ops: make(map[string]entry),
		ttl: ttl,
		max: max,
		now: time.Now,
	}
}

// Put implements Store.
func (s *MemStore) Put(key string, op Operation) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Expired entries go first; if the map is still full, the oldest
	// proposal is dropped. A dropped proposal is harmless: its token simply
	// stops matching, the same path as a mistyped confirmation.
	if len(s.ops) >= s.max {
		for k, e := range s.ops {
			if now.Sub(e.created) >= s.ttl {
				delete(s.ops, k)
			}
		}
	}
	if len(s.ops) >= s.max {
		var oldestKey string
		var oldest time.Time
		for k, e := range s.ops {
			if oldestKey == "" || e.created.Before(oldest) {
				oldestKey, oldest = k, e.created
			}
		}
		delete(s.ops, oldestKey)
	}

	s.ops[key] = entry{op: op, created: now}
}

// Take implements Store.
func (s *MemStore) Take(key, tenant, conversation string) (Operation, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ops[key]
	if !ok {
		return Operation{}, false
	}
	if now.Sub(e.created) >= s.ttl {
		delete(s.ops, key)
		return Operation{}, false
	}
	if e.op.Tenant != tenant || e.op.Conversation != conversation {
		return Operation{}, false
	}
	delete(s.ops, key)
	return e.op, true
}

// Len reports the number of stored proposals (expired entries included until
// they are lazily evicted).
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

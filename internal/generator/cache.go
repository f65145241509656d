package generator

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"golang.org/x/sync/singleflight"
)

// Cache maps (generator, params) keys to finalized modules.
type Cache struct {
	entries sync.Map // string -> *hdl.Module
	group   singleflight.Group
	flights flights

	hits   atomic.Uint64
	misses atomic.Uint64
	entryN atomic.Int64
}

// Stats is a snapshot of cache counters. Misses count invocations of
// generator functions, including ones that failed.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) load(key string) (*hdl.Module, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*hdl.Module), true
}

func (c *Cache) store(key string, m *hdl.Module) {
	if _, loaded := c.entries.LoadOrStore(key, m); !loaded {
		c.entryN.Add(1)
	}
}

// Len returns the number of cached modules.
func (c *Cache) Len() int { return int(c.entryN.Load()) }

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.Len()}
}

// Modules returns every cached module, in no particular order.
func (c *Cache) Modules() []*hdl.Module {
	var out []*hdl.Module
	c.entries.Range(func(_, v any) bool {
		out = append(out, v.(*hdl.Module))
		return true
	})
	return out
}

// flights tracks running keys and which running keys wait on which. A wait
// that would close a loop fails instead of blocking, even when the loop
// spans goroutines.
type flights struct {
	mu      sync.Mutex
	running map[string]string         // key -> generator name
	waits   map[string]map[string]int // waiting key -> awaited key -> waiters
}

func (f *flights) init() {
	if f.running == nil {
		f.running = make(map[string]string)
		f.waits = make(map[string]map[string]int)
	}
}

// begin marks key as running.
func (f *flights) begin(key, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.running[key] = name
}

// end clears key and the waits recorded under it.
func (f *flights) end(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, key)
	delete(f.waits, key)
}

// await records that the run of holder is about to wait on key. held are the
// keys the caller is running. If the run of key already waits, directly or
// not, on one of them, await records nothing and returns the frames from key
// to that held key.
func (f *flights) await(holder string, held map[string]bool, key, name string) ([]frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if _, ok := f.running[key]; !ok {
		// Nobody runs key yet; the caller is about to.
		f.running[key] = name
		return nil, false
	}
	if holder == "" {
		return nil, false
	}
	if path, ok := f.pathTo(key, held, map[string]bool{}); ok {
		return path, true
	}
	if f.waits[holder] == nil {
		f.waits[holder] = make(map[string]int)
	}
	f.waits[holder][key]++
	return nil, false
}

// release undoes one await of holder on key.
func (f *flights) release(holder, key string) {
	if holder == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.waits[holder]
	if w == nil {
		return
	}
	if w[key]--; w[key] <= 0 {
		delete(w, key)
	}
}

func (f *flights) pathTo(key string, held, seen map[string]bool) ([]frame, bool) {
	here := frame{key: key, name: f.running[key]}
	if held[key] {
		return []frame{here}, true
	}
	if seen[key] {
		return nil, false
	}
	seen[key] = true
	for next := range f.waits[key] {
		if path, ok := f.pathTo(next, held, seen); ok {
			return append([]frame{here}, path...), true
		}
	}
	return nil, false
}

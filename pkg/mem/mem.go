// Package mem models the Tab5's split memory map: a large external RAM
// (PSRAM) region preferred for frame buffers, and a smaller internal region
// used as fallback. Pools account capacity so callers see allocation
// failures the way constrained hardware reports them.
package mem

import (
	"sync"

	"github.com/go-tab5/tab5duino/pkg/errors"
)

// Pool is a capacity-accounted memory region. A nil Pool is valid and
// behaves as an unavailable region: every allocation fails.
type Pool struct {
	name string
	cap  int
	used int
	mu   sync.Mutex
}

// NewPool creates a pool with the given capacity in bytes.
func NewPool(name string, capacity int) *Pool {
	return &Pool{name: name, cap: capacity}
}

// Name returns the region name.
func (p *Pool) Name() string {
	if p == nil {
		return "none"
	}
	return p.name
}

// Size returns the pool capacity in bytes.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.cap
}

// Used returns the number of bytes currently allocated.
func (p *Pool) Used() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Alloc reserves n bytes and returns a zeroed buffer. It fails with
// KindResourceExhausted when the pool cannot satisfy the request.
func (p *Pool) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Newf("mem.Alloc", errors.KindInvalidArgument, "negative size %d", n)
	}
	if p == nil {
		return nil, errors.New("mem.Alloc", errors.KindResourceExhausted, "region unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used+n > p.cap {
		return nil, errors.Newf("mem.Alloc", errors.KindResourceExhausted,
			"%s: %d bytes requested, %d free", p.name, n, p.cap-p.used)
	}
	p.used += n
	return make([]byte, n), nil
}

// Release returns n bytes to the pool. The Go runtime reclaims the buffer
// itself; Release only maintains the capacity accounting.
func (p *Pool) Release(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used -= n
	if p.used < 0 {
		p.used = 0
	}
}

// Allocator implements the framework's buffer placement policy: prefer
// external RAM when present, fall back to internal RAM.
type Allocator struct {
	External *Pool
	Internal *Pool
}

// Buffer is an allocation tagged with the pool that satisfied it.
type Buffer struct {
	Data []byte
	pool *Pool
}

// External reports whether the buffer lives in the external region.
func (b *Buffer) External(a Allocator) bool { return b.pool == a.External && a.External != nil }

// Alloc places n bytes according to the allocator policy.
func (a Allocator) Alloc(n int) (*Buffer, error) {
	if data, err := a.External.Alloc(n); err == nil {
		return &Buffer{Data: data, pool: a.External}, nil
	}
	data, err := a.Internal.Alloc(n)
	if err != nil {
		return nil, err
	}
	return &Buffer{Data: data, pool: a.Internal}, nil
}

// Free releases the buffer back to its pool. Safe on nil.
func (a Allocator) Free(b *Buffer) {
	if b == nil || b.Data == nil {
		return
	}
	b.pool.Release(len(b.Data))
	b.Data = nil
	b.pool = nil
}

package httpclient

import (
	"io"
	"sync"
)

// Kind is the variant of a live request.
type Kind int

const (
	// KindData is a request whose body is kept in memory.
	KindData Kind = iota
	// KindUpload is a request that sends a body from a source.
	KindUpload
	// KindDownload is a request whose body is written to a file.
	KindDownload
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindUpload:
		return "upload"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

// ProgressHandler receives the bytes completed so far and the expected
// total, which is -1 when unknown.
type ProgressHandler func(completed, total int64)

// ProgressCapability describes which progress callbacks a live request
// supports. Register functions return an unregister function; a handler
// registered after bytes were transferred first receives the current sample.
// Upload is nil for requests without an uploaded body.
type ProgressCapability struct {
	Kind     Kind
	Upload   func(ProgressHandler) (unregister func())
	Download func(ProgressHandler) (unregister func())
}

// progress tracks bytes for one direction and fans samples out to handlers
// in registration order.
type progress struct {
	// deliver serializes handler calls so each handler sees samples in order.
	deliver   sync.Mutex
	mu        sync.Mutex
	completed int64
	total     int64
	nextID    int
	handlers  []progressEntry
}

type progressEntry struct {
	id int
	fn ProgressHandler
}

func newProgress() *progress {
	return &progress{total: -1}
}

func (p *progress) register(fn ProgressHandler) func() {
	p.deliver.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers = append(p.handlers, progressEntry{id: id, fn: fn})
	completed, total := p.completed, p.total
	p.mu.Unlock()
	if completed > 0 {
		fn(completed, total)
	}
	p.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, h := range p.handlers {
				if h.id == id {
					p.handlers = append(p.handlers[:i:i], p.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *progress) reset(completed, total int64) {
	p.mu.Lock()
	p.completed, p.total = completed, total
	p.mu.Unlock()
}

// add records n more bytes and notifies handlers. Handlers are called
// without the lock held so they may unregister themselves.
func (p *progress) add(n int64) {
	p.deliver.Lock()
	defer p.deliver.Unlock()
	p.mu.Lock()
	p.completed += n
	completed, total := p.completed, p.total
	handlers := make([]ProgressHandler, len(p.handlers))
	for i, h := range p.handlers {
		handlers[i] = h.fn
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(completed, total)
	}
}

func (p *progress) snapshot() (int64, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}

// countingReader reports every read to a progress tracker.
type countingReader struct {
	r io.Reader
	p *progress
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.p.add(int64(n))
	}
	return n, err
}

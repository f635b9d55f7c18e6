package cache

import "container/list"

// Policy decides which key leaves a full cache. Implementations are called
// with the cache lock held and need no locking of their own.
type Policy interface {
	// Add registers a newly stored key.
	Add(key string)
	// Touch records an access to an existing key.
	Touch(key string)
	// Remove forgets a key.
	Remove(key string)
	// Victim returns the key to evict next without removing it.
	Victim() (string, bool)
	// Reset forgets every key.
	Reset()
}

// LRU evicts the least recently used key.
type LRU struct {
	order *list.List // front = most recent
	index map[string]*list.Element
}

// NewLRU creates an empty LRU policy.
func NewLRU() *LRU {
	return &LRU{order: list.New(), index: make(map[string]*list.Element)}
}

func (p *LRU) Add(key string) {
	if el, ok := p.index[key]; ok {
		p.order.MoveToFront(el)
		return
	}
	p.index[key] = p.order.PushFront(key)
}

func (p *LRU) Touch(key string) {
	if el, ok := p.index[key]; ok {
		p.order.MoveToFront(el)
	}
}

func (p *LRU) Remove(key string) {
	if el, ok := p.index[key]; ok {
		p.order.Remove(el)
		delete(p.index, key)
	}
}

func (p *LRU) Victim() (string, bool) {
	el := p.order.Back()
	if el == nil {
		return "", false
	}
	return el.Value.(string), true
}

func (p *LRU) Reset() {
	p.order.Init()
	p.index = make(map[string]*list.Element)
}

// FIFO evicts the oldest inserted key regardless of access.
type FIFO struct {
	LRU
}

// NewFIFO creates an empty FIFO policy.
func NewFIFO() *FIFO {
	return &FIFO{LRU: *NewLRU()}
}

// Touch is a no-op: access does not change insertion order.
func (p *FIFO) Touch(string) {}

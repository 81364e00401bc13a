package data

import "sync"

// KeyedPool manages pools keyed by a query, e.g. one restaurant list per
// search filter. When MaxPools is reached the least recently created pool
// is cleared and dropped.
type KeyedPool[K comparable, T any] struct {
	mu       sync.RWMutex
	pools    map[K]*Pool[T]
	order    []K
	factory  func(key K) *Pool[T]
	maxPools int
}

// NewKeyedPool creates a KeyedPool that builds missing pools with factory.
// maxPools <= 0 means unbounded.
func NewKeyedPool[K comparable, T any](maxPools int, factory func(key K) *Pool[T]) *KeyedPool[K, T] {
	return &KeyedPool[K, T]{
		pools:    make(map[K]*Pool[T]),
		factory:  factory,
		maxPools: maxPools,
	}
}

// Get returns the Pool for key, creating it with the factory if needed.
func (kp *KeyedPool[K, T]) Get(key K) *Pool[T] {
	return kp.GetOrCreate(key, func() *Pool[T] { return kp.factory(key) })
}

// GetOrCreate returns the Pool for key, creating it with create if needed.
func (kp *KeyedPool[K, T]) GetOrCreate(key K, create func() *Pool[T]) *Pool[T] {
	kp.mu.RLock()
	if p, ok := kp.pools[key]; ok {
		kp.mu.RUnlock()
		return p
	}
	kp.mu.RUnlock()

	kp.mu.Lock()
	defer kp.mu.Unlock()
	if p, ok := kp.pools[key]; ok {
		return p
	}
	if kp.maxPools > 0 && len(kp.order) >= kp.maxPools {
		oldest := kp.order[0]
		kp.order = kp.order[1:]
		kp.pools[oldest].Clear()
		delete(kp.pools, oldest)
	}
	p := create()
	kp.pools[key] = p
	kp.order = append(kp.order, key)
	return p
}

// Has reports whether a pool exists for key.
func (kp *KeyedPool[K, T]) Has(key K) bool {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	_, ok := kp.pools[key]
	return ok
}

// Len returns the number of live pools.
func (kp *KeyedPool[K, T]) Len() int {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	return len(kp.pools)
}

// Invalidate marks all pools as stale.
func (kp *KeyedPool[K, T]) Invalidate() {
	kp.mu.RLock()
	defer kp.mu.RUnlock()
	for _, p := range kp.pools {
		p.Invalidate()
	}
}

// Clear clears and removes every pool.
func (kp *KeyedPool[K, T]) Clear() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	for _, p := range kp.pools {
		p.Clear()
	}
	kp.pools = make(map[K]*Pool[T])
	kp.order = nil
}

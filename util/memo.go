package util

import "sync"

// Memo caches the results of f by key in memory. Errors are not cached.
// If Max is positive, at most Max entries are kept and an arbitrary entry is
// evicted to make room for a new one.
// The zero value is ready to use and safe for concurrent use.
type Memo[K comparable, V any] struct {
	Max int
	vs  map[K]V
	mu  sync.RWMutex
}

func (m *Memo[K, V]) Get(k K, f func(K) (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.vs[k]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}
	v, err := f(k)
	if err != nil {
		return v, err
	}
	m.mu.Lock()
	if m.vs == nil {
		m.vs = map[K]V{}
	}
	if _, ok := m.vs[k]; !ok && m.Max > 0 && len(m.vs) >= m.Max {
		for old := range m.vs {
			delete(m.vs, old)
			break
		}
	}
	m.vs[k] = v
	m.mu.Unlock()
	return v, nil
}

func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vs)
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package doublemap implements a map from keys to scores that also keeps the
// keys ordered by ascending score.
package doublemap

import "container/heap"

type entry[K comparable] struct {
	key   K
	score float64
	seq   uint64
	pos   int
}

type entries[K comparable] []*entry[K]

func (e entries[K]) Len() int {
	return len(e)
}

func (e entries[K]) Less(i, j int) bool {
	if e[i].score != e[j].score {
		return e[i].score < e[j].score
	}
	return e[i].seq < e[j].seq
}

func (e entries[K]) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
	e[i].pos = i
	e[j].pos = j
}

func (e *entries[K]) Push(x any) {
	it := x.(*entry[K])
	it.pos = len(*e)
	*e = append(*e, it)
}

func (e *entries[K]) Pop() any {
	old := *e
	it := old[len(old)-1]
	old[len(old)-1] = nil
	*e = old[:len(old)-1]
	it.pos = -1
	return it
}

// Map is a double-keyed map: it maps each key to a score and gives access to
// the key of smallest score. Ties are broken by insertion order.
// The zero value is an empty map ready to use. Map is not safe for
// concurrent use.
type Map[K comparable] struct {
	heap  entries[K]
	index map[K]*entry[K]
	seq   uint64
}

// New returns an empty Map.
func New[K comparable]() *Map[K] {
	return &Map[K]{index: make(map[K]*entry[K])}
}

// Len returns the number of keys.
func (m *Map[K]) Len() int {
	return len(m.heap)
}

// Empty reports whether the map holds no key.
func (m *Map[K]) Empty() bool {
	return len(m.heap) == 0
}

// Insert adds key with the given score. It returns false and leaves the map
// unchanged if key is already present.
func (m *Map[K]) Insert(key K, score float64) bool {
	if m.index == nil {
		m.index = make(map[K]*entry[K])
	}
	if _, ok := m.index[key]; ok {
		return false
	}
	it := &entry[K]{key: key, score: score, seq: m.seq}
	m.seq++
	m.index[key] = it
	heap.Push(&m.heap, it)
	return true
}

// Erase removes key. It returns false if key was not present.
func (m *Map[K]) Erase(key K) bool {
	it, ok := m.index[key]
	if !ok {
		return false
	}
	heap.Remove(&m.heap, it.pos)
	delete(m.index, key)
	return true
}

// Contains reports whether key is present.
func (m *Map[K]) Contains(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Score returns the score of key.
func (m *Map[K]) Score(key K) (float64, bool) {
	it, ok := m.index[key]
	if !ok {
		return 0, false
	}
	return it.score, true
}

// Front returns the key of smallest score without removing it.
func (m *Map[K]) Front() (key K, score float64, ok bool) {
	if len(m.heap) == 0 {
		return key, 0, false
	}
	it := m.heap[0]
	return it.key, it.score, true
}

// PopFront removes the key of smallest score. It panics on an empty map.
func (m *Map[K]) PopFront() {
	if len(m.heap) == 0 {
		panic("PopFront: empty map")
	}
	it := heap.Pop(&m.heap).(*entry[K])
	delete(m.index, it.key)
}

// Clear removes every key.
func (m *Map[K]) Clear() {
	m.heap = m.heap[:0]
	m.index = make(map[K]*entry[K])
}

// Clone returns an independent copy of m that preserves the tie order.
func (m *Map[K]) Clone() *Map[K] {
	out := &Map[K]{
		heap:  make(entries[K], len(m.heap)),
		index: make(map[K]*entry[K], len(m.index)),
		seq:   m.seq,
	}
	for i, it := range m.heap {
		cp := *it
		out.heap[i] = &cp
		out.index[cp.key] = &cp
	}
	return out
}

// Keys returns the keys in no particular order.
func (m *Map[K]) Keys() []K {
	out := make([]K, 0, len(m.heap))
	for _, it := range m.heap {
		out = append(out, it.key)
	}
	return out
}

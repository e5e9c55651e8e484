// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package embedding

import (
	"fmt"
)

// ColdStartIndex is used for identifiers that are not in an identity map.
const ColdStartIndex = 0

// IdentityMap is a bidirectional mapping between external identifiers and
// dense embedding indices. Indices are assigned in first-seen order and are
// never removed or reassigned.
type IdentityMap struct {
	index map[string]int
	ids   []string
}

// NewIdentityMap returns an empty map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{index: make(map[string]int)}
}

// IdentityMapFromIDs rebuilds a map whose index i holds ids[i].
func IdentityMapFromIDs(ids []string) (*IdentityMap, error) {
	m := &IdentityMap{
		index: make(map[string]int, len(ids)),
		ids:   make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		if _, dup := m.index[id]; dup {
			return nil, fmt.Errorf("duplicate identifier %q in identity map", id)
		}
		m.Add(id)
	}
	return m, nil
}

// Add returns the index of id, assigning the next unused index if it is new.
func (m *IdentityMap) Add(id string) int {
	if idx, ok := m.index[id]; ok {
		return idx
	}
	idx := len(m.ids)
	m.index[id] = idx
	m.ids = append(m.ids, id)
	return idx
}

// Index returns the index of id and whether it is known.
func (m *IdentityMap) Index(id string) (int, bool) {
	idx, ok := m.index[id]
	return idx, ok
}

// Resolve returns the index of id, or ColdStartIndex when id is unknown.
func (m *IdentityMap) Resolve(id string) int {
	if idx, ok := m.index[id]; ok {
		return idx
	}
	return ColdStartIndex
}

// Contains reports whether id has an index.
func (m *IdentityMap) Contains(id string) bool {
	_, ok := m.index[id]
	return ok
}

// ID returns the identifier at idx.
func (m *IdentityMap) ID(idx int) (string, bool) {
	if idx < 0 || idx >= len(m.ids) {
		return "", false
	}
	return m.ids[idx], true
}

// Len returns the number of known identifiers.
func (m *IdentityMap) Len() int {
	return len(m.ids)
}

// IDs returns a copy of the identifiers in index order.
func (m *IdentityMap) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Clone returns an independent copy that can be extended without affecting m.
func (m *IdentityMap) Clone() *IdentityMap {
	c := &IdentityMap{
		index: make(map[string]int, len(m.index)),
		ids:   m.IDs(),
	}
	for k, v := range m.index {
		c.index[k] = v
	}
	return c
}

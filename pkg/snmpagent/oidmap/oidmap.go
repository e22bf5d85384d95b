// Package oidmap implements the sorted OID-to-keeper dispatch container
// (spec.md §4.1): register keepers at startup, freeze once into sorted
// order, then resolve incoming request OIDs by binary search.
package oidmap

import (
	"sort"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
)

type entry struct {
	oid models.OID
	k   keeper.Keeper
}

// OidMap is a sorted sequence of (OID, Keeper) pairs. Register before
// Freeze; afterward only the read-only lookups (Search, Idx, Oid, Len,
// Resolve, NextKeeperAfter, IndexOfBase) are safe to call.
type OidMap struct {
	entries []entry
	frozen  bool
}

// New returns an empty, unfrozen OidMap.
func New() *OidMap {
	return &OidMap{}
}

// Register appends a (oid, keeper) pair. Valid only before Freeze.
func (m *OidMap) Register(oid models.OID, k keeper.Keeper) {
	if m.frozen {
		panic("oidmap: Register called after Freeze")
	}
	m.entries = append(m.entries, entry{oid: oid.Clone(), k: k})
}

// Freeze sorts the container by OID ascending. Must be called exactly once
// before the serve loop begins.
func (m *OidMap) Freeze() {
	sort.Slice(m.entries, func(i, j int) bool {
		return m.entries[i].oid.Compare(m.entries[j].oid) < 0
	})
	m.frozen = true
}

// Search returns (index, true) on an exact match, or (insertion point,
// false) — the index of the first element greater than o.
func (m *OidMap) Search(o models.OID) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].oid.Compare(o) >= 0
	})
	if i < len(m.entries) && m.entries[i].oid.Compare(o) == 0 {
		return i, true
	}
	return i, false
}

func (m *OidMap) Idx(i int) keeper.Keeper { return m.entries[i].k }
func (m *OidMap) Oid(i int) models.OID    { return m.entries[i].oid }
func (m *OidMap) Len() int                { return len(m.entries) }

// Resolve implements the lookup rule of spec.md §4.1: an exact match owns
// the request outright; otherwise the keeper immediately before the
// insertion point owns it if its OID is a prefix of o (a table instance
// access). ok is false if o falls outside every managed subtree.
func (m *OidMap) Resolve(o models.OID) (k keeper.Keeper, ok bool) {
	if i, exact := m.Search(o); exact {
		return m.entries[i].k, true
	} else if i > 0 && o.HasPrefix(m.entries[i-1].oid) {
		return m.entries[i-1].k, true
	}
	return nil, false
}

// NextKeeperAfter returns the keeper registered at index i+1, the next
// managed subtree after the one at i in OID order; ok is false when i is
// the last index.
func (m *OidMap) NextKeeperAfter(i int) (k keeper.Keeper, base models.OID, ok bool) {
	if i+1 >= len(m.entries) {
		return nil, nil, false
	}
	return m.entries[i+1].k, m.entries[i+1].oid, true
}

// IndexOfBase returns the registration index whose OID equals base exactly;
// on a miss it returns the insertion point and false, as Search does.
func (m *OidMap) IndexOfBase(base models.OID) (int, bool) {
	return m.Search(base)
}

// Package spt is the supplemental page table: a process's private
// va->Page map. Backed by hashtable.Hashtable_t the way the teacher backs
// every va/id-keyed lookup table in the kernel with it.
package spt

import (
	"util"

	"hashtable"
	"mem"
	"page"
)

// DefaultBuckets is the bucket count a fresh SPT is sized with. Small
// processes rarely map more than a few dozen pages; the hash table grows
// its chains, not its bucket count, so this only affects chain length
// under heavy mapping, not correctness.
const DefaultBuckets = 64

// SPT is one process's supplemental page table. No cross-process
// references ever appear here; each process owns its own.
type SPT struct {
	ht *hashtable.Hashtable_t
}

// New creates an empty SPT.
func New() *SPT {
	return &SPT{ht: hashtable.MkHash(DefaultBuckets)}
}

func key(va uintptr) uintptr {
	return util.Rounddown(va, uintptr(mem.PGSIZE))
}

// Find rounds va down to its page boundary and returns the Page mapped
// there, or nil.
func (s *SPT) Find(va uintptr) *page.Page {
	v, ok := s.ht.Get(key(va))
	if !ok {
		return nil
	}
	return v.(*page.Page)
}

// Insert adds p, keyed by its (already page-aligned) VA, failing iff an
// entry already exists at that address.
func (s *SPT) Insert(p *page.Page) bool {
	if p.VA()%uintptr(mem.PGSIZE) != 0 {
		panic("spt: insert of non-page-aligned va")
	}
	_, fresh := s.ht.Set(p.VA(), p)
	return fresh
}

// Remove deletes the entry for p's VA and destroys p. The hashtable entry
// is always removed before Destroy runs, so a concurrent Find can never
// observe a half-destroyed page through the SPT.
func (s *SPT) Remove(p *page.Page) {
	s.ht.Del(p.VA())
	p.Destroy()
}

// Iterate invokes f on every page in the table; order is unspecified but
// stable within one traversal. Stops early if f returns true.
func (s *SPT) Iterate(f func(*page.Page) bool) {
	s.ht.Iter(func(_ interface{}, v interface{}) bool {
		return f(v.(*page.Page))
	})
}

// Kill iterates and destroys every page, tearing the address space's
// mappings down at process exit.
func (s *SPT) Kill() {
	var victims []*page.Page
	s.Iterate(func(p *page.Page) bool {
		victims = append(victims, p)
		return false
	})
	for _, p := range victims {
		s.Remove(p)
	}
}

// Size reports the number of pages currently tracked.
func (s *SPT) Size() int {
	return s.ht.Size()
}

// Package mem is the physical-page allocator and simulated page table that
// the rest of the VM subsystem builds on. It plays the role biscuit's own
// mem.go plays for the whole kernel -- Pa_t, PGSIZE, the PTE_* bit layout,
// and a refcounted free list -- but scoped down to what a frame table and a
// fault resolver actually call: allocate a zeroed page, bump/drop a
// refcount, and flip the present/writable/accessed/dirty bits of a
// simulated PTE. The direct-map/CPU-register plumbing biscuit needs to run
// on bare metal (Dmap, Pml4freeze, runtime.Cpuid, per-CPU free lists) has no
// analogue here: this package only ever runs as a host-process simulation,
// so pages are ordinary Go-heap []byte buffers, not physical DRAM.
package mem

import (
	"sync"
	"sync/atomic"
)

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// Pa_t names a physical frame by number, not by byte address: frame i's
// backing bytes live at Physmem.pgs[i].buf. Kept as a distinct type, as biscuit
// keeps Pa_t distinct from uintptr, so a page number can never be silently
// used as a byte offset.
type Pa_t uint32

// NoPage is the all-ones Pa_t used as "no frame" by callers that need a
// sentinel; Alloc returns it when the pool is exhausted.
const NoPage Pa_t = ^Pa_t(0)

// PTE bit layout for the simulated page table. Mirrors the teacher's
// PTE_P/PTE_W/PTE_U/PTE_G layout; PTE_A/PTE_D are added because the clock
// algorithm and writeback logic need accessed/dirty bits the teacher's own
// PTE_* block didn't need to name (the real MMU sets them; this simulation
// has to).
const (
	PTE_P   uint32 = 1 << 0 // present
	PTE_W   uint32 = 1 << 1 // writable
	PTE_U   uint32 = 1 << 2 // user-accessible
	PTE_A   uint32 = 1 << 5 // accessed
	PTE_D   uint32 = 1 << 6 // dirty
	PTE_COW uint32 = 1 << 9 // copy-on-write marker (software-only bit)
)

// Page is one physical frame's backing storage.
type Page [PGSIZE]byte

type physPage struct {
	buf    *Page
	refcnt int32
	nexti  uint32
	used   bool
}

// Physmem is a fixed-size pool of refcounted physical frames. It is the
// page-allocator collaborator spec.md §6 names: Alloc plays get_frame's
// "hand me a frame" role, Refup/Refdown play the refcounting discipline a
// shared COW frame depends on.
type Physmem struct {
	mu      sync.Mutex
	pgs     []physPage
	freei   uint32
	freelen int
}

const noFree = ^uint32(0)

// NewPhysmem creates a pool of npages frames, all free.
func NewPhysmem(npages int) *Physmem {
	p := &Physmem{
		pgs:   make([]physPage, npages),
		freei: 0,
	}
	for i := range p.pgs {
		if i == npages-1 {
			p.pgs[i].nexti = noFree
		} else {
			p.pgs[i].nexti = uint32(i + 1)
		}
	}
	p.freelen = npages
	return p
}

// Alloc returns a zeroed frame and its refcount-1 handle, or ok=false if the
// pool is exhausted. The caller owns the single reference; further sharers
// must Refup explicitly.
func (p *Physmem) Alloc() (Pa_t, *Page, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.freei == noFree {
		return NoPage, nil, false
	}
	idx := p.freei
	p.freei = p.pgs[idx].nexti
	p.freelen--
	pp := &p.pgs[idx]
	if pp.buf == nil {
		pp.buf = new(Page)
	} else {
		*pp.buf = Page{}
	}
	pp.refcnt = 1
	pp.used = true
	return Pa_t(idx), pp.buf, true
}

// Free reports the number of unallocated frames, for tests and diagnostics.
func (p *Physmem) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freelen
}

// Deref returns the backing bytes for pa. pa must be currently allocated.
func (p *Physmem) Deref(pa Pa_t) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	pp := &p.pgs[pa]
	if !pp.used {
		panic("mem: deref of unallocated frame")
	}
	return pp.buf
}

// Refcnt returns pa's current reference count.
func (p *Physmem) Refcnt(pa Pa_t) int {
	return int(atomic.LoadInt32(&p.pgs[pa].refcnt))
}

// Refup increments pa's reference count. pa must already have refcnt >= 1.
func (p *Physmem) Refup(pa Pa_t) {
	c := atomic.AddInt32(&p.pgs[pa].refcnt, 1)
	if c <= 1 {
		panic("mem: refup of unreferenced frame")
	}
}

// Refdown decrements pa's reference count, returning the frame to the free
// list and reporting true when the count reaches zero.
func (p *Physmem) Refdown(pa Pa_t) bool {
	c := atomic.AddInt32(&p.pgs[pa].refcnt, -1)
	if c < 0 {
		panic("mem: refdown below zero")
	}
	if c != 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pgs[pa].used = false
	p.pgs[pa].nexti = p.freei
	p.freei = uint32(pa)
	p.freelen++
	return true
}

// entry is one simulated PTE: which frame it maps, and its permission and
// accessed/dirty bits.
type entry struct {
	frame Pa_t
	flags uint32
}

// Table is a simulated per-address-space page table: a sparse va(page
// number)->PTE map standing in for the real pml4 walk biscuit's mem package
// performs against actual hardware page-table pages. It is the MMU
// collaborator spec.md §6 names (pml4_set_page/clear_page/is_dirty/
// set_dirty/is_accessed/set_accessed), folded into this package rather than
// a separate one because the PTE_* bit constants already live here.
type Table struct {
	mu   sync.Mutex
	ptes map[uintptr]entry
}

// NewTable creates an empty page table.
func NewTable() *Table {
	return &Table{ptes: make(map[uintptr]entry)}
}

// SetPage installs a mapping from page-aligned va to pa with the given
// writable/cow flags, present and accessed on install (matching a real MMU,
// which sets the accessed bit on the translation that serves the fault that
// just installed it).
func (t *Table) SetPage(va uintptr, pa Pa_t, writable, cow bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := PTE_P | PTE_U | PTE_A
	if writable {
		f |= PTE_W
	}
	if cow {
		f |= PTE_COW
	}
	t.ptes[va] = entry{frame: pa, flags: f}
}

// ClearPage removes any mapping at va.
func (t *Table) ClearPage(va uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ptes, va)
}

// Lookup reports the frame mapped at va, if any.
func (t *Table) Lookup(va uintptr) (Pa_t, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	if !ok {
		return NoPage, false
	}
	return e.frame, true
}

// IsWritable reports whether va's mapping, if present, permits writes.
func (t *Table) IsWritable(va uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	return ok && e.flags&PTE_W != 0
}

// IsCOW reports whether va's mapping, if present, carries the software
// copy-on-write marker.
func (t *Table) IsCOW(va uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	return ok && e.flags&PTE_COW != 0
}

// IsPresent reports whether va currently has any mapping at all.
func (t *Table) IsPresent(va uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ptes[va]
	return ok
}

// IsAccessed and IsDirty report the simulated accessed/dirty bits the clock
// algorithm and mmap writeback need.
func (t *Table) IsAccessed(va uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	return ok && e.flags&PTE_A != 0
}

func (t *Table) SetAccessed(va uintptr, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	if !ok {
		return
	}
	if v {
		e.flags |= PTE_A
	} else {
		e.flags &^= PTE_A
	}
	t.ptes[va] = e
}

func (t *Table) IsDirty(va uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	return ok && e.flags&PTE_D != 0
}

func (t *Table) SetDirty(va uintptr, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	if !ok {
		return
	}
	if v {
		e.flags |= PTE_D
	} else {
		e.flags &^= PTE_D
	}
	t.ptes[va] = e
}

// SetWritable flips the writable/cow bits of an existing mapping without
// otherwise disturbing it, the way a COW unshare re-installs the PTE with
// PTE_W set and PTE_COW cleared.
func (t *Table) SetWritable(va uintptr, writable, cow bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.ptes[va]
	if !ok {
		return
	}
	if writable {
		e.flags |= PTE_W
	} else {
		e.flags &^= PTE_W
	}
	if cow {
		e.flags |= PTE_COW
	} else {
		e.flags &^= PTE_COW
	}
	t.ptes[va] = e
}

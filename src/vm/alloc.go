package vm

import (
	"defs"
	"page"
)

// AllocPage is the convenience vm_alloc_page(kind, upage, writable): install
// an UNINIT page in the SPT whose first fault materializes as kind. Only
// KindAnon is a valid target here -- FILE pages always carry the extra
// (file, offset, read/zero bytes) state mmap supplies, so they go through
// Mmap instead.
func (as *AddressSpace) AllocPage(va uintptr, writable bool, kind page.Kind) defs.Err_t {
	if kind != page.KindAnon {
		panic("vm: alloc_page only supports KindAnon; file pages go through Mmap")
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	p := page.NewAnon(as.ctx(), va, writable, false)
	if !as.Spt.Insert(p) {
		return defs.EEXIST
	}
	return 0
}

// AllocPageWithInitializer is vm_alloc_page_with_initializer: install an
// UNINIT page whose first fault runs closure(aux) after transitioning to
// target -- the mechanism an ELF loader uses to lazily fault in a program
// segment.
func (as *AddressSpace) AllocPageWithInitializer(va uintptr, writable bool, target page.Kind, closure func(*page.Page, interface{}) bool, aux interface{}) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()
	p := page.NewUninitWithClosure(as.ctx(), va, writable, target, closure, aux)
	if !as.Spt.Insert(p) {
		return defs.EEXIST
	}
	return 0
}

package vm

import "page"

// ClaimPage is vm_claim_page(va): find the SPT entry at va and claim it.
// Returns false if no page is mapped there or the claim fails.
func (as *AddressSpace) ClaimPage(va uintptr) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	p := as.Spt.Find(va)
	if p == nil {
		return false
	}
	return as.claimLocked(p)
}

// claimLocked binds p to a fresh frame, installs the PTE, and runs its
// swap_in -- step 5 of the fault resolver (spec.md §4.4) and the tail of
// stack growth. For COW pages the PTE is installed read-only regardless of
// p.Writable(); every other page gets its declared permission. Caller must
// hold as.mu.
func (as *AddressSpace) claimLocked(p *page.Page) bool {
	f := as.sys.Frames.GetFrame()
	p.SetFrame(f)
	f.Owner = p
	cow := p.IsCOW()
	writable := p.Writable() && !cow
	as.Table.SetPage(p.VA(), f.Pa, writable, cow)
	if !p.SwapIn() {
		return false
	}
	return true
}

package vm

import "page"

// handleWP is the write-protect/COW handler (spec.md §4.5): a write fault
// landed on a page marked is_cow. If writable was already false, the
// fault is illegal regardless of sharing (spec.md §9 Open Questions) --
// clearing is_cow can never let a process exceed its own declared
// protection. Otherwise, if the frame is uniquely held, reuse it in place
// (the fast path restored from the original source); if shared, copy.
func (as *AddressSpace) handleWP(p *page.Page) bool {
	if !p.Writable() {
		return false
	}
	f := p.Frame()
	if f == nil {
		return false
	}
	if f.RefcountSnapshot() == 1 {
		p.SetCOW(false)
		as.Table.SetWritable(p.VA(), true, false)
		return true
	}

	newf := as.sys.Frames.GetFrame()
	copy(newf.Buf[:], f.Buf[:])
	newf.Owner = p
	p.SetFrame(newf)
	p.SetCOW(false)
	as.Table.SetPage(p.VA(), newf.Pa, true, false)
	as.sys.Frames.Release(f)
	as.sys.CowCopies.Inc()
	return true
}

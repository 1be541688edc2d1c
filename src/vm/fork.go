package vm

import (
	"defs"
	"page"
)

// Fork is spt_copy: duplicate every page in as's SPT into a fresh child
// address space, per spec.md §4.6's per-kind strategy. Any failure aborts
// the copy; the partial child is torn down through the normal destroy
// path and the failure is reported.
func (as *AddressSpace) Fork() (*AddressSpace, defs.Err_t) {
	child := as.sys.NewAddressSpace()

	as.mu.Lock()
	defer as.mu.Unlock()

	var failed defs.Err_t
	as.Spt.Iterate(func(p *page.Page) bool {
		if err := as.forkPage(child, p); err != 0 {
			failed = err
			return true
		}
		return false
	})
	if failed != 0 {
		child.Spt.Kill()
		return nil, failed
	}
	return child, 0
}

func (as *AddressSpace) forkPage(child *AddressSpace, p *page.Page) defs.Err_t {
	switch p.Kind() {
	case page.KindUninit:
		return as.forkUninit(child, p)
	case page.KindFile:
		return as.forkResidentFile(child, p)
	case page.KindAnon:
		if p.IsStack() {
			return as.forkStack(child, p)
		}
		return as.forkAnonShared(child, p)
	default:
		panic("vm: fork of page with unknown kind")
	}
}

// forkUninit duplicates a not-yet-materialized page. If its deferred
// target is FILE, the aux carries a file handle that must be reopened for
// an independent cursor (spec.md §4.6 "UNINIT"); any other target (the
// lazy-loader shape) has no file to duplicate, so the closure and aux are
// shared as-is -- safe because that closure must already be idempotent to
// tolerate being invoked by an unrelated fault in a cloned address space.
func (as *AddressSpace) forkUninit(child *AddressSpace, p *page.Page) defs.Err_t {
	target, closure, aux := p.UninitClosure()
	if target == page.KindFile {
		f, offset, readBytes, zeroBytes := p.FileInfo()
		if f == nil {
			return defs.EINVAL
		}
		dup, err := f.Reopen()
		if err != nil {
			return defs.ENOMEM
		}
		cp := page.NewFileBacked(child.ctx(), p.VA(), p.Writable(), dup, offset, readBytes, zeroBytes, nil)
		if !child.Spt.Insert(cp) {
			return defs.EEXIST
		}
		return 0
	}
	cp := page.NewUninitWithClosure(child.ctx(), p.VA(), p.Writable(), target, closure, aux)
	if !child.Spt.Insert(cp) {
		return defs.EEXIST
	}
	return 0
}

// forkStack eagerly duplicates an ANON|STACK page: claim it in the parent
// if it isn't resident yet, allocate a fresh writable frame in the child,
// and copy the bytes across. Stack pages are never COW-shared.
func (as *AddressSpace) forkStack(child *AddressSpace, p *page.Page) defs.Err_t {
	if p.Frame() == nil {
		if !as.claimLocked(p) {
			return defs.ENOMEM
		}
	}
	cp := page.NewAnon(child.ctx(), p.VA(), p.Writable(), true)
	if !child.Spt.Insert(cp) {
		return defs.EEXIST
	}
	if !child.claimLocked(cp) {
		return defs.ENOMEM
	}
	copy(cp.Frame().Buf[:], p.Frame().Buf[:])
	return 0
}

// forkAnonShared COW-shares a resident or swapped-out non-stack ANON page
// between parent and child, per spec.md §4.6. Both sides end up marked
// is_cow with their PTEs (if any) remapped read-only.
func (as *AddressSpace) forkAnonShared(child *AddressSpace, p *page.Page) defs.Err_t {
	if f := p.Frame(); f != nil {
		f.Incref()
		cp := page.NewAnonShared(child.ctx(), p.VA(), p.Writable(), f, false)
		if !child.Spt.Insert(cp) {
			return defs.EEXIST
		}
		child.Table.SetPage(cp.VA(), f.Pa, false, true)
		p.SetCOW(true)
		as.Table.SetWritable(p.VA(), false, true)
		return 0
	}

	slot := p.SwapIndex()
	as.sys.Swap.Incref(slot)
	cp := page.NewAnonSwapped(child.ctx(), p.VA(), p.Writable(), slot, false)
	if !child.Spt.Insert(cp) {
		return defs.EEXIST
	}
	p.SetCOW(true)
	return 0
}

// forkResidentFile duplicates an already-materialized FILE page as a fresh
// lazy UNINIT->FILE page in the child: frames are never shared across
// fork for file mappings, and the child does not inherit the parent's
// mmap region (spec.md §4.6 "FILE").
func (as *AddressSpace) forkResidentFile(child *AddressSpace, p *page.Page) defs.Err_t {
	f, offset, readBytes, zeroBytes := p.FileInfo()
	dup, err := f.Reopen()
	if err != nil {
		return defs.ENOMEM
	}
	cp := page.NewFileBacked(child.ctx(), p.VA(), p.Writable(), dup, offset, readBytes, zeroBytes, nil)
	if !child.Spt.Insert(cp) {
		return defs.EEXIST
	}
	return 0
}

package vm

import (
	"file"
	"mem"
	"page"
	"util"
)

// Mmap is do_mmap(addr, length, writable, f, offset): map length bytes of
// f starting at offset into the address space at addr, as a run of
// UNINIT->FILE pages. Returns the mapping address, or false on any
// precondition failure or collision -- with no side effects on failure
// (spec.md §4.7).
func (as *AddressSpace) Mmap(addr uintptr, length int, writable bool, f file.File, offset int64) (uintptr, bool) {
	if addr == 0 || addr%uintptr(mem.PGSIZE) != 0 || length <= 0 || offset%int64(mem.PGSIZE) != 0 || f == nil {
		return 0, false
	}

	dup, err := f.Reopen()
	if err != nil {
		return 0, false
	}
	flen := dup.Length()
	if flen <= 0 || offset >= flen {
		dup.Close()
		return 0, false
	}

	readBytes := util.Min(int64(length), flen-offset)

	region := &page.MmapRegion{Addr: addr, Length: length, File: dup}

	as.mu.Lock()
	defer as.mu.Unlock()

	var installed []*page.Page
	rollback := func() {
		for _, p := range installed {
			as.Spt.Remove(p)
		}
		dup.Close()
	}

	npages := util.Roundup(length, mem.PGSIZE) / mem.PGSIZE
	remaining := readBytes
	for i := 0; i < npages; i++ {
		va := addr + uintptr(i*mem.PGSIZE)
		if as.Spt.Find(va) != nil {
			rollback()
			return 0, false
		}
		pread := util.Min(remaining, int64(mem.PGSIZE))
		pzero := mem.PGSIZE - int(pread)
		remaining -= pread

		p := page.NewFileBacked(as.ctx(), va, writable, dup, offset+int64(i*mem.PGSIZE), int(pread), pzero, region)
		if !as.Spt.Insert(p) {
			rollback()
			return 0, false
		}
		installed = append(installed, p)
		region.PageCount++
	}

	as.regions = append(as.regions, region)
	return addr, true
}

// Munmap is do_munmap(addr): tear down the mapping installed by Mmap at
// addr. A no-op if no such region exists. Each page's SPT entry is removed
// first; the destroy path that follows writes dirty FILE pages back and
// then clears their PTEs.
func (as *AddressSpace) Munmap(addr uintptr) {
	as.mu.Lock()
	defer as.mu.Unlock()

	idx := -1
	var region *page.MmapRegion
	for i, r := range as.regions {
		if r.Addr == addr {
			idx, region = i, r
			break
		}
	}
	if region == nil {
		return
	}

	npages := util.Roundup(region.Length, mem.PGSIZE) / mem.PGSIZE
	for i := 0; i < npages; i++ {
		va := addr + uintptr(i*mem.PGSIZE)
		if p := as.Spt.Find(va); p != nil {
			as.Spt.Remove(p)
		}
	}

	as.regions = append(as.regions[:idx], as.regions[idx+1:]...)
	region.File.Close()
}

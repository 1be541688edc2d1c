package page

import (
	"file"
	"mem"
)

// fileOps_t is the file-backed (mmap) page backend: content is read from
// and written back to an open file at a fixed offset.
type fileOps_t struct{}

var fileOps ops = fileOps_t{}

// fileLoadClosure seeks to the page's file offset, reads exactly
// readBytes into the linked frame, and zero-pads the remainder. It is
// used both as the UNINIT->FILE transition's content closure (the first
// fault) and, unwrapped, as fileOps_t.SwapIn's logic for a page evicted
// and re-faulted later -- the same read-and-zero-pad either way.
func fileLoadClosure(p *Page, _ interface{}) bool {
	if err := p.file.Seek(p.offset); err != nil {
		return false
	}
	buf := p.frm.Buf
	n, err := readFull(p.file, buf[:p.readBytes])
	if err != nil || n != p.readBytes {
		return false
	}
	for i := p.readBytes; i < mem.PGSIZE; i++ {
		buf[i] = 0
	}
	return true
}

func readFull(f file.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
	}
	return total, nil
}

func (fileOps_t) SwapIn(p *Page) bool {
	return fileLoadClosure(p, nil)
}

// SwapOut writes back dirty content, clears the PTE, and detaches the
// frame -- the frame itself stays in the frame table for reuse.
func (fileOps_t) SwapOut(p *Page) bool {
	if p.ctx.Table.IsDirty(p.va) {
		if !p.writeback() {
			return false
		}
		p.ctx.Table.SetDirty(p.va, false)
	}
	p.ctx.Table.ClearPage(p.va)
	p.frm = nil
	return true
}

// Destroy writes back dirty content (if resident) and releases the frame.
func (fileOps_t) Destroy(p *Page) {
	if p.frm != nil && p.ctx.Table.IsDirty(p.va) {
		p.writeback()
	}
	p.ctx.Table.ClearPage(p.va)
	if p.frm != nil {
		p.ctx.Frames.Release(p.frm)
		p.frm = nil
	}
}

func (p *Page) writeback() bool {
	buf := p.frm.Buf
	return p.file.WriteAt(buf[:p.readBytes], p.offset) == nil
}

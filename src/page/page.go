// Package page is the per-page metadata and kind-specific operations
// (UNINIT/ANON/FILE) the supplemental page table stores one of per mapped
// virtual address. Each kind exposes swap_in/swap_out/destroy through a
// small ops vtable; rather than carry function pointers the way the
// original does, this follows idiomatic Go and represents the vtable as an
// interface satisfied by a zero-size singleton value per kind -- the same
// shape biscuit's own Page_i (mem.Page_i) plays for the physical allocator.
package page

import (
	"sync"

	"file"
	"frame"
	"mem"
	"swap"
)

// Kind identifies which backend a page currently uses.
type Kind int

const (
	KindUninit Kind = iota
	KindAnon
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindUninit:
		return "uninit"
	case KindAnon:
		return "anon"
	case KindFile:
		return "file"
	default:
		return "kind(?)"
	}
}

// Ctx bundles the collaborators every page operation needs: the frame
// table to claim/release frames, the swap table for anon backing storage,
// and the owning address space's simulated page table for PTE
// install/clear and accessed/dirty bits.
type Ctx struct {
	Frames *frame.Table
	Swap   *swap.Table
	Table  *mem.Table
}

// ops is the per-kind operations vtable: swap_in, swap_out, destroy.
// Implementations assume the caller already holds the owning Page's lock.
type ops interface {
	SwapIn(p *Page) bool
	SwapOut(p *Page) bool
	Destroy(p *Page)
}

// MmapRegion is one entry per mmap call: a contiguous VA range spanning
// one or more FILE pages, plus the reopened file handle the pages in the
// region share and the number of pages the mmap call installed.
type MmapRegion struct {
	Addr      uintptr
	Length    int
	File      file.File
	PageCount int
}

// Page is one mapped virtual address's metadata: which kind currently
// backs it, whether it is writable/COW/a stack page, the frame holding its
// content (if resident), and kind-specific state. UNINIT pages carry a
// target kind plus an optional content-materialization closure; ANON pages
// carry a swap slot index; FILE pages carry the reopened file handle and
// the byte range to read.
type Page struct {
	mu sync.Mutex

	va       uintptr
	writable bool
	cow      bool
	stack    bool
	kind     Kind
	ops      ops
	ctx      *Ctx

	frm *frame.Frame

	// uninit
	target  Kind
	closure func(*Page, interface{}) bool
	aux     interface{}

	// anon
	swapIndex int

	// file
	file      file.File
	offset    int64
	readBytes int
	zeroBytes int
	region    *MmapRegion
}

// NewAnon creates an UNINIT page whose first fault materializes a zeroed
// ANON page -- the "convenience" vm_alloc_page(ANON, upage, writable) path.
// No closure is needed: a freshly allocated frame already reads zeroed.
func NewAnon(ctx *Ctx, va uintptr, writable, stack bool) *Page {
	return &Page{
		ctx: ctx, va: va, writable: writable, stack: stack,
		kind: KindUninit, ops: uninitOps,
		target:    KindAnon,
		swapIndex: swap.NoSlot,
	}
}

// NewFileBacked creates an UNINIT page whose first fault reads readBytes
// from f at offset and zero-pads the remaining zeroBytes -- the page an
// mmap call installs for every page-aligned VA in its range.
func NewFileBacked(ctx *Ctx, va uintptr, writable bool, f file.File, offset int64, readBytes, zeroBytes int, region *MmapRegion) *Page {
	return &Page{
		ctx: ctx, va: va, writable: writable,
		kind: KindUninit, ops: uninitOps, target: KindFile,
		file: f, offset: offset, readBytes: readBytes, zeroBytes: zeroBytes,
		region:    region,
		closure:   fileLoadClosure,
		swapIndex: swap.NoSlot,
	}
}

// NewUninitWithClosure creates an UNINIT page with a caller-supplied
// content-materialization closure and opaque aux payload -- the general
// mechanism an ELF loader uses to lazily fault in a program segment into
// what becomes, after the first fault, an ordinary ANON page.
func NewUninitWithClosure(ctx *Ctx, va uintptr, writable bool, target Kind, closure func(*Page, interface{}) bool, aux interface{}) *Page {
	return &Page{
		ctx: ctx, va: va, writable: writable,
		kind: KindUninit, ops: uninitOps, target: target,
		closure:   closure,
		aux:       aux,
		swapIndex: swap.NoSlot,
	}
}

// VA returns the page's virtual address. Immutable after construction.
func (p *Page) VA() uintptr { return p.va }

// Writable reports the page's declared write permission.
func (p *Page) Writable() bool { return p.writable }

// IsStack reports whether this page was allocated as part of a stack
// growth (the STACK marker).
func (p *Page) IsStack() bool { return p.stack }

// Region returns the mmap region owning this page, or nil.
func (p *Page) Region() *MmapRegion { return p.region }

// Target reports the UNINIT page's eventual kind. Only meaningful while
// Kind() == KindUninit.
func (p *Page) Target() Kind { return p.target }

// FileInfo returns the FILE-kind state needed to duplicate this page on
// fork (or mmap bookkeeping): the reopened handle, offset, and byte split.
func (p *Page) FileInfo() (f file.File, offset int64, readBytes, zeroBytes int) {
	return p.file, p.offset, p.readBytes, p.zeroBytes
}

// UninitClosure returns the deferred target kind, materialization closure,
// and aux payload of a still-UNINIT page -- what spt_copy needs to
// duplicate a generic lazy-loader page (one with no file backing) onto a
// forked child. Meaningless once Kind() has transitioned past KindUninit.
func (p *Page) UninitClosure() (Kind, func(*Page, interface{}) bool, interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.closure, p.aux
}

// IsCOW reports whether this page is currently marked copy-on-write.
func (p *Page) IsCOW() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cow
}

// SetCOW sets or clears the COW marker.
func (p *Page) SetCOW(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cow = v
}

// Kind reports the page's current backend.
func (p *Page) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

// Frame returns the frame currently holding this page's content, or nil.
func (p *Page) Frame() *frame.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frm
}

// SetFrame links the page to f (or clears the link when f is nil).
func (p *Page) SetFrame(f *frame.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frm = f
}

// SwapIndex returns the anon page's swap slot, or swap.NoSlot.
func (p *Page) SwapIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.swapIndex
}

// SetSwapIndex records the anon page's swap slot.
func (p *Page) SetSwapIndex(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swapIndex = i
}

// SwapIn brings the page's content into its (already-linked) frame: for
// UNINIT, transitions to the target kind and materializes content; for
// ANON/FILE, re-populates a previously evicted page.
func (p *Page) SwapIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ops.SwapIn(p)
}

// SwapOut evicts the page's content to backing storage (swap or file) and
// detaches its frame. Implements frame.Owner.
func (p *Page) SwapOut() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ops.SwapOut(p)
}

// Table implements frame.Owner: the page table its mapping lives in.
func (p *Page) Table() *mem.Table {
	return p.ctx.Table
}

// Destroy tears the page down: clears its PTE, releases its frame (if
// any), and frees any swap slot it holds -- the common tail of
// SPT.Remove and SPT.Kill.
func (p *Page) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops.Destroy(p)
}

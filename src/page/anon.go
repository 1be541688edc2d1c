package page

import (
	"frame"
	"swap"
)

// anonOps_t is the anonymous-memory backend: content lives either in a
// frame or, once evicted, in a swap slot.
type anonOps_t struct{}

var anonOps ops = anonOps_t{}

// NewAnonShared creates an already-resident ANON page sharing frm with a
// sibling page created on fork -- the COW-share case of spt_copy
// (spec.md §4.6 "ANON, non-stack, resident"). The caller must already have
// incremented frm's refcount and must mark the sibling cow too; this
// constructor only builds the child's half.
func NewAnonShared(ctx *Ctx, va uintptr, writable bool, frm *frame.Frame, stack bool) *Page {
	return &Page{
		ctx: ctx, va: va, writable: writable, stack: stack, cow: true,
		kind: KindAnon, ops: anonOps, frm: frm, swapIndex: swap.NoSlot,
	}
}

// NewAnonSwapped creates an ANON page already pointing at an existing swap
// slot shared with a sibling -- the "ANON, non-stack, swapped-out" fork
// case. The caller must already have incremented the slot's refcount.
func NewAnonSwapped(ctx *Ctx, va uintptr, writable bool, slot int, stack bool) *Page {
	return &Page{
		ctx: ctx, va: va, writable: writable, stack: stack, cow: true,
		kind: KindAnon, ops: anonOps, swapIndex: slot,
	}
}

// SwapIn reads the page's content back from its swap slot into its
// (already-linked) frame. Fails if the page was never swapped out --
// that invariant only ever fires on a genuine programming error, since a
// resident ANON page's first materialization goes through the UNINIT
// transition, never straight through here.
func (anonOps_t) SwapIn(p *Page) bool {
	if p.swapIndex == swap.NoSlot {
		return false
	}
	buf := p.frm.Buf
	if err := p.ctx.Swap.ReadInto(p.swapIndex, buf[:]); err != nil {
		return false
	}
	freed := p.ctx.Swap.Decref(p.swapIndex)
	_ = freed
	p.swapIndex = swap.NoSlot
	return true
}

// SwapOut writes the page's frame contents to a fresh swap slot, clears
// the PTE, and detaches the frame. Swap-device exhaustion panics inside
// swap.Table.Alloc; a disk I/O failure writing the slot is reported here
// as an ordinary failed operation.
func (anonOps_t) SwapOut(p *Page) bool {
	buf := p.frm.Buf
	slot, err := p.ctx.Swap.Alloc(buf[:])
	if err != nil {
		return false
	}
	p.swapIndex = slot
	p.ctx.Table.ClearPage(p.va)
	p.frm = nil
	return true
}

// Destroy releases the page's frame (if resident) and swap slot (if any).
func (anonOps_t) Destroy(p *Page) {
	p.ctx.Table.ClearPage(p.va)
	if p.frm != nil {
		p.ctx.Frames.Release(p.frm)
		p.frm = nil
	}
	if p.swapIndex != swap.NoSlot {
		p.ctx.Swap.Decref(p.swapIndex)
		p.swapIndex = swap.NoSlot
	}
}

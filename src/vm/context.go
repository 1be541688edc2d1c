// Package vm ties the supplemental page table, frame table, and swap table
// together into the per-process address space and the operations the
// syscall layer would call: alloc/claim a page, resolve a fault, fork an
// address space, and mmap/munmap a file. Grounded on vm/as.go's Vm_t (the
// mutex-protected address space struct, Lock_pmap/Sys_pgfault naming) and
// mem.go's Physmem-backed allocator, but rebuilt around the page/frame/spt
// packages instead of biscuit's direct-mapped Pmap_t.
package vm

import (
	"sync"

	"disk"
	"frame"
	"mem"
	"page"
	"spt"
	"stats"
	"swap"
)

// Config holds the handful of values a test harness or kernel init needs to
// vary, passed explicitly the way mem.go's PGSIZE/PTE_* are compile-time
// constants and the one genuinely per-deployment knob -- the user stack
// top -- is not: disk size and frame-pool size are already fixed by the
// System's constructor arguments, so Config only carries the stack-growth
// window.
type Config struct {
	// UserStack is the topmost legal user stack address. Zero disables
	// stack growth entirely (every fault on an unmapped page fails).
	UserStack uintptr
	// StackLimit bounds how far below UserStack a fault may legally grow
	// the stack. Zero defaults to 1 MiB, the spec's window.
	StackLimit uintptr
}

const defaultStackLimit = 1 << 20

// System is the process-wide VM singleton: the frame table and swap table
// every address space shares, plus the fault/COW/kill counters the
// teacher's stats package tracks elsewhere in the kernel. Mirrors the
// "global state... initialized once at vm_init, never torn down" design
// note by being constructed exactly once and handed to every
// AddressSpace it creates.
type System struct {
	Frames *frame.Table
	Swap   *swap.Table
	Config Config

	Faults    stats.Counter_t
	CowCopies stats.Counter_t
	Kills     stats.Counter_t
}

// NewSystem is vm_init: wires a frame table over phys and a swap table over
// dev, applying cfg's defaults.
func NewSystem(phys *mem.Physmem, dev disk.Device, cfg Config) *System {
	if cfg.StackLimit == 0 {
		cfg.StackLimit = defaultStackLimit
	}
	return &System{
		Frames: frame.NewTable(phys),
		Swap:   swap.NewTable(dev),
		Config: cfg,
	}
}

// AddressSpace is one process's address space: its simulated page table,
// its supplemental page table, and the mmap regions it currently owns.
// Mirrors Vm_t's "one mutex protects Vmregion/Pmap" design, scoped down to
// what this module actually needs to protect -- the region list and the
// compound fault/fork/mmap operations that must appear atomic to a
// concurrent find/insert on the same SPT.
type AddressSpace struct {
	sys *System

	mu      sync.Mutex
	Table   *mem.Table
	Spt     *spt.SPT
	regions []*page.MmapRegion
}

// NewAddressSpace is spt_init: a fresh page table and empty SPT bound to
// sys's shared frame/swap tables.
func (sys *System) NewAddressSpace() *AddressSpace {
	return &AddressSpace{sys: sys, Table: mem.NewTable(), Spt: spt.New()}
}

// ctx bundles the collaborators every page.Page operation needs.
func (as *AddressSpace) ctx() *page.Ctx {
	return &page.Ctx{Frames: as.sys.Frames, Swap: as.sys.Swap, Table: as.Table}
}

// Kill is spt_kill: tears down every page in the address space, releasing
// their frames and swap slots.
func (as *AddressSpace) Kill() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.Spt.Kill()
	as.regions = nil
}

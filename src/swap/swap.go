// Package swap is the swap table: a fixed-size array of slot reference
// counts over a disk.Device, where each slot holds one page worth of data
// (8 sectors). Grounded on the swap-table description the VM spec carries
// forward from the original Pintos source (a bitmap there; refcounted here
// to support shared COW anonymous pages swapped out while still shared, the
// way mem.Physmem refcounts a shared frame).
package swap

import (
	"fmt"
	"sync"

	"disk"
	"mem"
	"stats"
)

// SectorsPerSlot is the number of disk sectors one page-sized swap slot
// occupies: PGSIZE (4096) / disk.SectorSize (512).
const SectorsPerSlot = mem.PGSIZE / disk.SectorSize

// NoSlot is the sentinel swap index meaning "never swapped out".
const NoSlot = -1

// Table is the swap-table singleton: one mutex guarding a refcount per
// slot, backed by dev for the actual sector I/O.
type Table struct {
	mu     sync.Mutex
	refcnt []int
	dev    disk.Device

	SwapOuts stats.Counter_t
	SwapIns  stats.Counter_t
}

// NewTable creates a swap table sized to dev's capacity.
func NewTable(dev disk.Device) *Table {
	nslots := dev.Size() / SectorsPerSlot
	return &Table{refcnt: make([]int, nslots), dev: dev}
}

// Alloc finds a free slot (refcount 0), marks it refcount 1, and writes buf
// (one page) to it. buf must be mem.PGSIZE bytes. Panics if the swap
// device itself is exhausted (no free slot at all), matching the spec's
// "swap exhausted" panic contract for unrecoverable resource failure. A
// disk I/O failure while writing the slot's sectors is a different kind of
// failure -- not a resource-exhaustion invariant violation -- so it rolls
// the allocation back and returns an error instead of panicking, letting
// the caller's page operation fail and the fault resolver kill just the
// one process.
func (t *Table) Alloc(buf []byte) (int, error) {
	if len(buf) != mem.PGSIZE {
		panic(fmt.Sprintf("swap: page buffer length %d != %d", len(buf), mem.PGSIZE))
	}
	t.mu.Lock()
	slot := -1
	for i, c := range t.refcnt {
		if c == 0 {
			t.refcnt[i] = 1
			slot = i
			break
		}
	}
	t.mu.Unlock()
	if slot == -1 {
		panic("swap: swap exhausted")
	}
	if err := t.writeSlot(slot, buf); err != nil {
		t.Decref(slot)
		return -1, err
	}
	t.SwapOuts.Inc()
	return slot, nil
}

// ReadInto reads slot's page into buf without touching its refcount --
// every sibling sharing a swapped-out COW frame independently reads the
// same live slot before each decrements it once. Returns a disk I/O error
// without panicking: a failed swap_in is a failed page operation, not an
// invariant violation.
func (t *Table) ReadInto(slot int, buf []byte) error {
	if len(buf) != mem.PGSIZE {
		panic(fmt.Sprintf("swap: page buffer length %d != %d", len(buf), mem.PGSIZE))
	}
	base := slot * SectorsPerSlot
	sec := make([]byte, disk.SectorSize)
	for i := 0; i < SectorsPerSlot; i++ {
		if err := t.dev.ReadSector(base+i, sec); err != nil {
			return fmt.Errorf("swap: read sector %d: %w", base+i, err)
		}
		copy(buf[i*disk.SectorSize:(i+1)*disk.SectorSize], sec)
	}
	t.SwapIns.Inc()
	return nil
}

func (t *Table) writeSlot(slot int, buf []byte) error {
	base := slot * SectorsPerSlot
	for i := 0; i < SectorsPerSlot; i++ {
		sec := buf[i*disk.SectorSize : (i+1)*disk.SectorSize]
		if err := t.dev.WriteSector(base+i, sec); err != nil {
			return fmt.Errorf("swap: write sector %d: %w", base+i, err)
		}
	}
	return nil
}

// Incref bumps slot's refcount, for a second COW sibling recorded as
// sharing the same swap_index.
func (t *Table) Incref(slot int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refcnt[slot]++
}

// Decref drops slot's refcount by one, freeing the slot when it reaches
// zero, and reports whether it was freed.
func (t *Table) Decref(slot int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refcnt[slot] <= 0 {
		panic("swap: decref of already-free slot")
	}
	t.refcnt[slot]--
	return t.refcnt[slot] == 0
}

// Refcnt reports slot's current refcount, for tests and diagnostics.
func (t *Table) Refcnt(slot int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refcnt[slot]
}

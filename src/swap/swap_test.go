package swap

import (
	"bytes"
	"testing"

	"disk"
	"mem"
)

func page(fill byte) []byte {
	b := make([]byte, mem.PGSIZE)
	for i := range b {
		b[i] = fill
	}
	return b
}

func mustAlloc(t *testing.T, tbl *Table, buf []byte) int {
	t.Helper()
	slot, err := tbl.Alloc(buf)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	return slot
}

func TestAllocReadRoundTrip(t *testing.T) {
	tbl := NewTable(disk.NewRAMDisk(SectorsPerSlot * 4))
	p := page(0x42)
	slot := mustAlloc(t, tbl, p)
	if tbl.Refcnt(slot) != 1 {
		t.Fatalf("refcnt = %d, want 1", tbl.Refcnt(slot))
	}
	out := make([]byte, mem.PGSIZE)
	if err := tbl.ReadInto(slot, out); err != nil {
		t.Fatalf("readinto: %v", err)
	}
	if !bytes.Equal(out, p) {
		t.Fatal("read back does not match written page")
	}
}

func TestSharedSlotIndependentDecref(t *testing.T) {
	tbl := NewTable(disk.NewRAMDisk(SectorsPerSlot * 4))
	slot := mustAlloc(t, tbl, page(7))
	tbl.Incref(slot)
	if tbl.Refcnt(slot) != 2 {
		t.Fatalf("refcnt = %d, want 2", tbl.Refcnt(slot))
	}
	out1 := make([]byte, mem.PGSIZE)
	tbl.ReadInto(slot, out1)
	if tbl.Decref(slot) {
		t.Fatal("slot freed too early with one sibling remaining")
	}
	out2 := make([]byte, mem.PGSIZE)
	tbl.ReadInto(slot, out2)
	if !bytes.Equal(out1, out2) {
		t.Fatal("second sibling read different content from live slot")
	}
	if !tbl.Decref(slot) {
		t.Fatal("expected slot freed on second decref")
	}
}

func TestAllocReusesFreedSlot(t *testing.T) {
	tbl := NewTable(disk.NewRAMDisk(SectorsPerSlot * 1))
	slot := mustAlloc(t, tbl, page(1))
	tbl.Decref(slot)
	slot2 := mustAlloc(t, tbl, page(2))
	if slot2 != slot {
		t.Fatalf("expected slot reuse, got %d then %d", slot, slot2)
	}
}

func TestAllocExhaustedPanics(t *testing.T) {
	tbl := NewTable(disk.NewRAMDisk(SectorsPerSlot * 1))
	mustAlloc(t, tbl, page(1))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on swap exhaustion")
		}
	}()
	tbl.Alloc(page(2))
}

func TestDecrefAlreadyFreePanics(t *testing.T) {
	tbl := NewTable(disk.NewRAMDisk(SectorsPerSlot * 1))
	slot := mustAlloc(t, tbl, page(1))
	tbl.Decref(slot)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic decref'ing a free slot")
		}
	}()
	tbl.Decref(slot)
}

func TestAllocDiskFailureRollsBack(t *testing.T) {
	dev := &failingDisk{RAMDisk: disk.NewRAMDisk(SectorsPerSlot * 2), failWrite: true}
	tbl := NewTable(dev)
	_, err := tbl.Alloc(page(1))
	if err == nil {
		t.Fatal("expected error from failing disk write")
	}
	if tbl.Refcnt(0) != 0 {
		t.Fatalf("expected slot rolled back to free, refcnt = %d", tbl.Refcnt(0))
	}
}

type failingDisk struct {
	*disk.RAMDisk
	failWrite bool
}

func (f *failingDisk) WriteSector(sector int, buf []byte) error {
	if f.failWrite {
		return bytes.ErrTooLarge
	}
	return f.RAMDisk.WriteSector(sector, buf)
}

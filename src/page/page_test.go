package page

import (
	"bytes"
	"testing"

	"disk"
	"file"
	"frame"
	"mem"
	"swap"
)

func newCtx(npages, nslots int) *Ctx {
	phys := mem.NewPhysmem(npages)
	return &Ctx{
		Frames: frame.NewTable(phys),
		Swap:   swap.NewTable(disk.NewRAMDisk(nslots * swap.SectorsPerSlot)),
		Table:  mem.NewTable(),
	}
}

func claim(t *testing.T, ctx *Ctx, p *Page, writable bool) {
	t.Helper()
	f := ctx.Frames.GetFrame()
	p.SetFrame(f)
	f.Owner = p
	cow := p.IsCOW()
	ctx.Table.SetPage(p.VA(), f.Pa, writable && !cow, cow)
	if !p.SwapIn() {
		t.Fatal("swap_in failed during claim")
	}
}

func TestAnonFirstFaultZeroed(t *testing.T) {
	ctx := newCtx(4, 4)
	p := NewAnon(ctx, 0x1000, true, false)
	claim(t, ctx, p, true)
	if p.Kind() != KindAnon {
		t.Fatalf("kind = %v, want anon", p.Kind())
	}
	buf := p.Frame().Buf
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zero: %x", i, b)
		}
	}
}

func TestAnonSwapRoundTrip(t *testing.T) {
	ctx := newCtx(4, 4)
	p := NewAnon(ctx, 0x1000, true, false)
	claim(t, ctx, p, true)
	buf := p.Frame().Buf
	for i := range buf {
		buf[i] = 0xAB
	}

	if !p.SwapOut() {
		t.Fatal("swap_out failed")
	}
	if p.Frame() != nil {
		t.Fatal("expected frame detached after swap_out")
	}
	if p.SwapIndex() == swap.NoSlot {
		t.Fatal("expected swap index recorded after swap_out")
	}

	f := ctx.Frames.GetFrame()
	p.SetFrame(f)
	if !p.SwapIn() {
		t.Fatal("swap_in failed")
	}
	for i, b := range p.Frame().Buf {
		if b != 0xAB {
			t.Fatalf("byte %d = %x after swap round-trip, want ab", i, b)
		}
	}
	if p.SwapIndex() != swap.NoSlot {
		t.Fatal("expected swap index cleared after swap_in")
	}
}

func TestAnonSwapInNeverSwappedFails(t *testing.T) {
	ctx := newCtx(4, 4)
	p := NewAnon(ctx, 0x1000, true, false)
	p.kind = KindAnon
	p.ops = anonOps
	f := ctx.Frames.GetFrame()
	p.SetFrame(f)
	if p.SwapIn() {
		t.Fatal("expected swap_in to fail when swap_index == NoSlot")
	}
}

func TestAnonDestroyReleasesSwapSlot(t *testing.T) {
	ctx := newCtx(4, 4)
	p := NewAnon(ctx, 0x1000, true, false)
	claim(t, ctx, p, true)
	p.SwapOut()
	slot := p.SwapIndex()
	p.Destroy()
	if ctx.Swap.Refcnt(slot) != 0 {
		t.Fatalf("expected swap slot freed, refcnt = %d", ctx.Swap.Refcnt(slot))
	}
}

func TestFileBackedReadThroughAndZeroPad(t *testing.T) {
	ctx := newCtx(4, 4)
	f := file.NewMemFile(bytes.Repeat([]byte{0x7}, 3000))
	p := NewFileBacked(ctx, 0x10000, true, f, 0, 3000, mem.PGSIZE-3000, nil)
	claim(t, ctx, p, true)
	if p.Kind() != KindFile {
		t.Fatalf("kind = %v, want file", p.Kind())
	}
	buf := p.Frame().Buf
	for i := 0; i < 3000; i++ {
		if buf[i] != 0x7 {
			t.Fatalf("byte %d = %x, want 7", i, buf[i])
		}
	}
	for i := 3000; i < mem.PGSIZE; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = %x, want zero padding", i, buf[i])
		}
	}
}

func TestFileBackedShortReadFails(t *testing.T) {
	ctx := newCtx(4, 4)
	f := file.NewMemFile([]byte("short"))
	p := NewFileBacked(ctx, 0x10000, true, f, 0, 100, mem.PGSIZE-100, nil)
	fr := ctx.Frames.GetFrame()
	p.SetFrame(fr)
	if p.SwapIn() {
		t.Fatal("expected swap_in to fail on short read")
	}
}

func TestFileBackedWritebackOnDirtyDestroy(t *testing.T) {
	ctx := newCtx(4, 4)
	f := file.NewMemFile(bytes.Repeat([]byte{0}, 100))
	p := NewFileBacked(ctx, 0x10000, true, f, 0, 100, mem.PGSIZE-100, nil)
	claim(t, ctx, p, true)

	buf := p.Frame().Buf
	buf[0] = 0x99
	ctx.Table.SetDirty(p.VA(), true)

	p.Destroy()

	readback := make([]byte, 1)
	f.Seek(0)
	f.Read(readback)
	if readback[0] != 0x99 {
		t.Fatalf("writeback did not persist dirty byte, got %x", readback[0])
	}
}

func TestUninitClosureMaterializesThenBecomesAnon(t *testing.T) {
	ctx := newCtx(4, 4)
	loaded := false
	closure := func(p *Page, aux interface{}) bool {
		loaded = true
		tag := aux.(string)
		copy(p.Frame().Buf[:], tag)
		return true
	}
	p := NewUninitWithClosure(ctx, 0x2000, true, KindAnon, closure, "segment-data")
	claim(t, ctx, p, true)
	if !loaded {
		t.Fatal("expected closure to run on first fault")
	}
	if p.Kind() != KindAnon {
		t.Fatalf("kind after closure = %v, want anon", p.Kind())
	}
	if string(p.Frame().Buf[:len("segment-data")]) != "segment-data" {
		t.Fatal("closure content not present in frame")
	}
}

func TestClosureFailurePropagates(t *testing.T) {
	ctx := newCtx(4, 4)
	closure := func(p *Page, aux interface{}) bool { return false }
	p := NewUninitWithClosure(ctx, 0x2000, true, KindAnon, closure, nil)
	fr := ctx.Frames.GetFrame()
	p.SetFrame(fr)
	if p.SwapIn() {
		t.Fatal("expected swap_in to fail when closure fails")
	}
}

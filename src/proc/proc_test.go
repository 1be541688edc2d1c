package proc

import (
	"testing"

	"defs"
	"disk"
	"mem"
	"page"
	"swap"
	"vm"
)

func newSystem(npages, nslots int) *vm.System {
	phys := mem.NewPhysmem(npages)
	dev := disk.NewRAMDisk(nslots * swap.SectorsPerSlot)
	return vm.NewSystem(phys, dev, vm.Config{UserStack: 0x800000000000})
}

func TestPageFaultUserModeUsesTrapRsp(t *testing.T) {
	sys := newSystem(4, 4)
	p := New(defs.Tid_t(1), sys)

	va := sys.Config.UserStack - uintptr(mem.PGSIZE)
	if !p.PageFault(va, true, true, true, va) {
		t.Fatal("expected stack growth fault to succeed")
	}
	if p.Dead() {
		t.Fatal("process should not be dead after a resolved fault")
	}
}

func TestPageFaultKernelModeUsesSavedRsp(t *testing.T) {
	sys := newSystem(4, 4)
	p := New(defs.Tid_t(1), sys)

	va := sys.Config.UserStack - uintptr(mem.PGSIZE)
	p.SetRsp(va)
	// trapRsp is deliberately wrong (far above va); kernel-mode faults must
	// ignore it and use the saved rsp instead.
	if !p.PageFault(va, false, true, true, va+0x100000) {
		t.Fatal("expected kernel-mode fault to use the saved rsp, not trapRsp")
	}
}

func TestPageFaultFailureKillsProcess(t *testing.T) {
	sys := newSystem(4, 4)
	p := New(defs.Tid_t(1), sys)

	// An address nowhere near the stack window and with no SPT entry.
	if p.PageFault(0x9000, true, true, true, 0x9000) {
		t.Fatal("expected unresolvable fault to fail")
	}
	if !p.Dead() {
		t.Fatal("expected process to be marked dead after a failed fault")
	}
}

func TestForkProducesIndependentAddressSpace(t *testing.T) {
	sys := newSystem(8, 8)
	parent := New(defs.Tid_t(1), sys)

	va := uintptr(0x30000)
	if err := parent.As.AllocPage(va, true, page.KindAnon); err != 0 {
		t.Fatalf("alloc_page failed: %v", err)
	}
	if !parent.As.ClaimPage(va) {
		t.Fatal("claim failed")
	}

	child, ok := parent.Fork(defs.Tid_t(2))
	if !ok {
		t.Fatal("expected fork to succeed")
	}
	if child.Tid != defs.Tid_t(2) {
		t.Fatalf("child tid = %v, want 2", child.Tid)
	}
	if child.As.Spt.Find(va) == nil {
		t.Fatal("expected child to inherit the parent's page")
	}
	if child.Dead() {
		t.Fatal("freshly forked child should not be dead")
	}
}

func TestExitTearsDownAddressSpace(t *testing.T) {
	sys := newSystem(4, 4)
	p := New(defs.Tid_t(1), sys)

	va := uintptr(0x1000)
	if err := p.As.AllocPage(va, true, page.KindAnon); err != 0 {
		t.Fatalf("alloc_page failed: %v", err)
	}
	p.Exit()
	if p.As.Spt.Find(va) != nil {
		t.Fatal("expected exit to clear the address space's SPT")
	}
}

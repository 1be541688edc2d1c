package kernel

import (
	"testing"

	"page"
	"vm"
)

func TestInitWiresUsableVMSystem(t *testing.T) {
	k := Init(Config{
		UserFrames:  8,
		SwapSectors: 32,
		VM:          vm.Config{UserStack: 0x800000000000},
	})

	if k.Phys == nil || k.Disk == nil || k.VM == nil {
		t.Fatal("expected Init to wire every collaborator")
	}

	as := k.VM.NewAddressSpace()
	va := uintptr(0x5000)
	if err := as.AllocPage(va, true, page.KindAnon); err != 0 {
		t.Fatalf("alloc_page failed: %v", err)
	}
	if !as.ClaimPage(va) {
		t.Fatal("claim_page failed")
	}
	if !as.Table.IsWritable(va) {
		t.Fatal("expected writable mapping after claim")
	}
}

func TestInitStackGrowthEndToEnd(t *testing.T) {
	k := Init(Config{
		UserFrames:  4,
		SwapSectors: 16,
		VM:          vm.Config{UserStack: 0x800000000000},
	})

	as := k.VM.NewAddressSpace()
	va := k.VM.Config.UserStack - uintptr(4096)
	if !as.TryHandleFault(va, true, true, va) {
		t.Fatal("expected stack growth fault to succeed through kernel.Init's wiring")
	}
}

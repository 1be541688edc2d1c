// Package kernel is the composition root: it wires the physical frame
// pool, the swap disk, and the VM system built on top of them into one
// running configuration -- the Go analogue of biscuit's chentry.go boot
// sequence, scoped down to exactly what spec.md §6 names as vm_init.
package kernel

import (
	"disk"
	"mem"
	"vm"
)

// Config describes the sizes vm_init needs to bring the VM subsystem up:
// how many physical frames the user pool holds and how many sectors the
// swap disk has, plus the VM-level stack-growth window.
type Config struct {
	UserFrames  int
	SwapSectors int
	VM          vm.Config
}

// Kernel bundles the physical memory pool, the swap device, and the VM
// system wired over them -- global state initialized once and never torn
// down for the life of the kernel session (spec.md §9).
type Kernel struct {
	Phys *mem.Physmem
	Disk disk.Device
	VM   *vm.System
}

// Init is vm_init: allocate the user frame pool and swap disk, and wire a
// VM system over both.
func Init(cfg Config) *Kernel {
	phys := mem.NewPhysmem(cfg.UserFrames)
	dev := disk.NewRAMDisk(cfg.SwapSectors)
	return &Kernel{
		Phys: phys,
		Disk: dev,
		VM:   vm.NewSystem(phys, dev, cfg.VM),
	}
}

// Package proc is the minimal process abstraction the VM subsystem's
// collaborators consume: a thread id, its address space, and the saved
// stack pointer the fault resolver needs to bound stack growth when a
// fault arrives from kernel mode rather than from a genuine user trap.
// Grounded on defs.Tid_t (threaded through vm/as.go's Pgfault signature
// and tinfo.go's per-thread note map) and vm/as.go's Vm_t-per-process
// ownership, scoped to what this module actually needs: scheduling and
// syscall dispatch are out of VM's scope (spec.md §1).
package proc

import (
	"fmt"
	"sync"

	"caller"
	"defs"
	"vm"
)

// Process is one user process: its thread id and address space, plus the
// saved rsp used to bound stack growth when the fault did not arrive with
// a trap-frame rsp of its own (e.g. a kernel-mode copy into user memory).
type Process struct {
	Tid defs.Tid_t
	As  *vm.AddressSpace

	mu   sync.Mutex
	rsp  uintptr
	dead bool
}

// New creates a process with a fresh address space bound to sys.
func New(tid defs.Tid_t, sys *vm.System) *Process {
	return &Process{Tid: tid, As: sys.NewAddressSpace()}
}

// SetRsp records the thread's current user stack pointer, read by
// PageFault whenever a fault arrives without its own trap-frame rsp.
func (p *Process) SetRsp(rsp uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rsp = rsp
}

func (p *Process) savedRsp() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rsp
}

// Dead reports whether this process has been killed by a failed fault.
func (p *Process) Dead() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

// PageFault resolves a fault at addr for this process. user reports
// whether the trap occurred in user mode, in which case trapRsp is the
// stack pointer taken from the trap frame; otherwise the process's own
// saved rsp is used (spec.md §4.4). A failed fault kills the process.
func (p *Process) PageFault(addr uintptr, user, write, notPresent bool, trapRsp uintptr) bool {
	rsp := trapRsp
	if !user {
		rsp = p.savedRsp()
	}
	if p.As.TryHandleFault(addr, write, notPresent, rsp) {
		return true
	}
	p.kill(addr)
	return false
}

// kill marks the process dead and records the call stack that decided the
// fault was unrecoverable, the way a kernel crash dump points at the VM
// code path that killed the process.
func (p *Process) kill(addr uintptr) {
	p.mu.Lock()
	p.dead = true
	p.mu.Unlock()
	fmt.Printf("proc: killing tid %v on unresolved fault at %#x\n%s", p.Tid, addr, caller.FaultTrace(2))
}

// Fork duplicates this process's address space into a fresh child process
// with the given child tid. Fails (ok=false) if the address-space fork
// itself failed (an allocation failure during SPT copy).
func (p *Process) Fork(childTid defs.Tid_t) (*Process, bool) {
	childAs, err := p.As.Fork()
	if err != 0 {
		return nil, false
	}
	return &Process{Tid: childTid, As: childAs}, true
}

// Exit tears down this process's address space.
func (p *Process) Exit() {
	p.As.Kill()
}

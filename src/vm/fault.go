package vm

import (
	"mem"
	"page"
	"util"
)

// TryHandleFault is vm_try_handle_fault: resolve a page fault at addr.
// write reports whether the faulting access was a write; notPresent
// reports whether the PTE was absent (false means a protection fault on a
// present page). rsp is the stack pointer at fault time -- taken from the
// trap frame when the fault occurred in user mode, otherwise from the
// thread's own saved rsp -- and bounds legal stack growth. Returns false
// when the fault cannot be resolved; the caller kills the process, and the
// System's Kills counter records it.
func (as *AddressSpace) TryHandleFault(addr uintptr, write, notPresent bool, rsp uintptr) (ok bool) {
	as.sys.Faults.Inc()
	defer func() {
		if !ok {
			as.sys.Kills.Inc()
		}
	}()

	as.mu.Lock()
	defer as.mu.Unlock()

	va := util.Rounddown(addr, uintptr(mem.PGSIZE))
	p := as.Spt.Find(va)
	if p == nil {
		if !as.canGrowStack(addr, rsp) {
			return false
		}
		np := page.NewAnon(as.ctx(), va, true, true)
		if !as.Spt.Insert(np) {
			return false
		}
		return as.claimLocked(np)
	}

	if !notPresent && write {
		// a write to a page that is already mapped present: only legal if
		// it's a COW write fault.
		if p.IsCOW() {
			return as.handleWP(p)
		}
		return false
	}

	return as.claimLocked(p)
}

// canGrowStack reports whether addr falls in the legal stack-growth
// window: within StackLimit bytes below UserStack, and at most 8 bytes
// below rsp (the furthest a push instruction reaches before the stack
// pointer itself is updated).
func (as *AddressSpace) canGrowStack(addr, rsp uintptr) bool {
	us := as.sys.Config.UserStack
	if us == 0 || addr >= us {
		return false
	}
	if addr < us-as.sys.Config.StackLimit {
		return false
	}
	if rsp > addr+8 {
		return false
	}
	return true
}

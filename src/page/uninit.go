package page

// uninitOps_t is the UNINIT backend. It holds no state of its own --
// everything it needs lives on the Page (target, closure, aux) -- so a
// single shared value serves every UNINIT page, the same zero-size
// singleton-as-vtable pattern anonOps and fileOps use.
type uninitOps_t struct{}

var uninitOps ops = uninitOps_t{}

// SwapIn performs the UNINIT->target transition: install the target
// kind's state and ops vtable, then run the one-time content closure (if
// any). The closure owns aux and consumes it exactly once. The closure runs
// with p's lock released, so it may use the page's exported accessors
// (Frame, VA, ...), which take that lock themselves.
func (uninitOps_t) SwapIn(p *Page) bool {
	switch p.target {
	case KindAnon:
		p.kind = KindAnon
		p.ops = anonOps
	case KindFile:
		p.kind = KindFile
		p.ops = fileOps
	default:
		panic("page: uninit page with unknown target kind")
	}

	if p.closure == nil {
		return true
	}
	closure := p.closure
	aux := p.aux
	p.closure = nil
	p.aux = nil
	p.mu.Unlock()
	defer p.mu.Lock()
	return closure(p, aux)
}

// SwapOut is never called on an UNINIT page: it never holds a frame, so
// the clock algorithm never selects it as a victim.
func (uninitOps_t) SwapOut(p *Page) bool {
	panic("page: swap_out of a page still uninitialized")
}

// Destroy releases an UNINIT page's resources. It never holds a frame or
// swap slot, so there's nothing to release beyond clearing any PTE that
// (should not but defensively might) exist.
func (uninitOps_t) Destroy(p *Page) {
	p.ctx.Table.ClearPage(p.va)
}

// Package stats provides the zero-cost-when-disabled counters the VM
// context uses to track faults, evictions, and swap traffic. Follows
// biscuit's own Stats gate: a compile-time const turns every Inc into a
// no-op the compiler can dead-code-eliminate, so leaving instrumentation
// wired in a hot path costs nothing when Stats is false.
package stats

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
)

// Stats gates every Counter_t.Inc call in this module. The teacher's
// runtime.Rdtsc-based Cycles_t timing counters depend on a forked Go
// runtime exposing the TSC, which isn't available outside that kernel's own
// build of the toolchain; this module keeps the Counter_t half of the
// pattern only (see DESIGN.md).
const Stats = true

// Counter_t is a statistical counter, atomically incremented.
type Counter_t int64

// Inc increments the counter by one.
func (c *Counter_t) Inc() {
	if Stats {
		atomic.AddInt64((*int64)(c), 1)
	}
}

// Add adds n to the counter.
func (c *Counter_t) Add(n int64) {
	if Stats {
		atomic.AddInt64((*int64)(c), n)
	}
}

// Get returns the counter's current value.
func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

// Stats2String renders every Counter_t field of st as "name: value" lines,
// the way the teacher dumps kernel-wide counters for a debug print.
func Stats2String(st interface{}) string {
	if !Stats {
		return ""
	}
	v := reflect.ValueOf(st)
	s := ""
	for i := 0; i < v.NumField(); i++ {
		t := v.Field(i).Type().String()
		if strings.HasSuffix(t, "Counter_t") {
			n := v.Field(i).Interface().(Counter_t)
			s += "\n\t#" + v.Type().Field(i).Name + ": " + strconv.FormatInt(int64(n), 10)
		}
	}
	return s + "\n"
}

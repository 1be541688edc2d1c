// Package caller prints the Go call stack responsible for killing a
// process, the way a kernel would want a crash dump pointing at the VM
// code path that decided the fault was unrecoverable.
package caller

import (
	"fmt"
	"runtime"
)

// FaultTrace renders the call stack starting start frames above FaultTrace
// itself (start 1 is FaultTrace's caller). Used by the fault resolver when it decides to kill a process, so
// the failure reason survives past the point that killed it, without
// pulling in a logging library the rest of this corpus never reaches for.
func FaultTrace(start int) string {
	s := ""
	for i := start; ; i++ {
		_, f, l, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if s == "" {
			s = fmt.Sprintf("%s:%d\n", f, l)
		} else {
			s += fmt.Sprintf("\t<-%s:%d\n", f, l)
		}
	}
	return s
}

package codegen

import (
	"strconv"
	"sync/atomic"
)

// freshCounter is the process-wide monotonically increasing counter backing
// freshName. Uniqueness is only required across names live within one
// compilation, but a global counter is a safe superset of that requirement.
var freshCounter uint64

// freshName returns prefix$<n>, with n incremented after the read.
func freshName(prefix string) string {
	n := atomic.AddUint64(&freshCounter, 1) - 1
	return prefix + "$" + strconv.FormatUint(n, 10)
}

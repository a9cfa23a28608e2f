package disabled

import "github.com/atulkulk/folly/threadlocal"

type tag struct{}

// Both violations, no diagnostics expected: this package is analyzed
// with both checks disabled.
var a = threadlocal.New[tag](func() int { return 1 })
var b = threadlocal.New[tag](func() int { return 2 })

var shared = a.Get()

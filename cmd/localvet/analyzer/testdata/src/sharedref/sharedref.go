package sharedref

import "github.com/atulkulk/folly/threadlocal"

type tag struct{}

var counter = threadlocal.New[tag](func() int { return 0 })

var shared = counter.Get() // want `Get result stored in a package-level variable`

// Calling Get inside a function is the supported pattern.
func bump() {
	*counter.Get()++
}

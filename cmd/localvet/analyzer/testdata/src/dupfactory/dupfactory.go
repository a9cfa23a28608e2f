package dupfactory

import "github.com/atulkulk/folly/threadlocal"

type tag struct{}
type other struct{}

var a = threadlocal.New[tag](func() int { return 1 })
var b = threadlocal.New[tag](func() int { return 2 }) // want `conflicting constructor for singleton New\[dupfactory.tag, int\]`

// Same constructor text again is not a conflict.
var c = threadlocal.New[tag](func() int { return 1 })

// A different tag is a different singleton.
var d = threadlocal.New[other](func() int { return 3 })

var e = threadlocal.NewInPlace[tag](func(v *string) { *v = "x" })
var f = threadlocal.NewInPlace[tag](func(v *string) { *v = "y" }) // want `conflicting constructor for singleton NewInPlace\[dupfactory.tag, string\]`

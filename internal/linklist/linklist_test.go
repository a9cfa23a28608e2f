package linklist

import "testing"

type item struct {
	id   int
	node Node[*item]
}

func newItem(id int) *item {
	it := &item{id: id}
	it.node.Value = it
	return it
}

// collect drains l and returns the visited ids in drain order.
func collect(l *List[*item]) []int {
	var ids []int
	l.Drain(func(it *item) { ids = append(ids, it.id) })
	return ids
}

func TestZeroListEmpty(t *testing.T) {
	var l List[*item]
	if !l.Empty() {
		t.Error("zero List not Empty()")
	}
	// Drain of a zero list must not initialize or panic.
	l.Drain(func(*item) { t.Error("Drain visited a node in an empty list") })
}

func TestPushFrontOrder(t *testing.T) {
	var l List[*item]
	for i := 1; i <= 3; i++ {
		l.PushFront(&newItem(i).node)
	}
	if l.Empty() {
		t.Fatal("list Empty() after PushFront")
	}
	got := collect(&l)
	want := []int{3, 2, 1}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("drain order = %v, want %v", got, want)
		}
	}
	if !l.Empty() {
		t.Error("list not Empty() after Drain")
	}
}

func TestUnlinkMiddle(t *testing.T) {
	var l List[*item]
	a, b, c := newItem(1), newItem(2), newItem(3)
	l.PushFront(&c.node)
	l.PushFront(&b.node)
	l.PushFront(&a.node)

	b.node.Unlink()
	if b.node.Linked() {
		t.Error("node Linked() after Unlink")
	}
	got := collect(&l)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("drain after middle unlink = %v, want [1 3]", got)
	}
}

func TestUnlinkIdempotent(t *testing.T) {
	var l List[*item]
	a := newItem(1)
	l.PushFront(&a.node)
	a.node.Unlink()
	a.node.Unlink() // second unlink is a no-op
	if !l.Empty() {
		t.Error("list not empty after unlinking only node")
	}

	var zero Node[*item]
	zero.Unlink() // never-linked node is also a no-op
}

// TestRelink verifies a node can move between lists: unlink from the
// first owner, push onto the second, and only the second sees it.
func TestRelink(t *testing.T) {
	var l1, l2 List[*item]
	a := newItem(1)
	l1.PushFront(&a.node)
	a.node.Unlink()
	l2.PushFront(&a.node)

	if got := collect(&l1); len(got) != 0 {
		t.Fatalf("first list drained %v after relink, want none", got)
	}
	if got := collect(&l2); len(got) != 1 || got[0] != 1 {
		t.Fatalf("second list drained %v, want [1]", got)
	}
}

func TestPushFrontLinkedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PushFront of a linked node did not panic")
		}
	}()
	var l List[*item]
	a := newItem(1)
	l.PushFront(&a.node)
	l.PushFront(&a.node)
}

// TestUnlinkAfterOwnerGone is the auto-unlink property: unlinking must
// remain valid when the node is the only survivor and the owning List
// value is no longer reachable by the caller.
func TestUnlinkAfterOwnerGone(t *testing.T) {
	a := newItem(1)
	func() {
		var l List[*item]
		l.PushFront(&a.node)
		// l goes out of scope still holding a linked node.
	}()
	a.node.Unlink()
	if a.node.Linked() {
		t.Error("node Linked() after unlink from abandoned list")
	}
}

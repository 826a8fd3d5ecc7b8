// Package lru provides a recency list: a doubly-linked list ordered from
// most to least recently touched.
package lru

// Node is an element of a List. It stores its key so callers can map back
// from a node to their own records.
type Node[K comparable] struct {
	Key  K
	prev *Node[K]
	next *Node[K]
	list *List[K]
}

// List orders keys by recency. The zero value is an empty list.
// List is not safe for concurrent use.
type List[K comparable] struct {
	head *Node[K] // most recent
	tail *Node[K] // least recent
	len  int
}

// Len returns the number of nodes.
func (l *List[K]) Len() int { return l.len }

// PushFront inserts key as the most recent entry.
func (l *List[K]) PushFront(key K) *Node[K] {
	n := &Node[K]{Key: key}
	l.pushFront(n)
	return n
}

// Touch makes n the most recent entry. Nodes of other lists are ignored.
func (l *List[K]) Touch(n *Node[K]) {
	if n == nil || n.list != l || n == l.head {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

// Remove takes n out of the list. Removing a node twice is a no-op.
func (l *List[K]) Remove(n *Node[K]) {
	if n == nil || n.list != l {
		return
	}
	l.unlink(n)
}

// Oldest returns the least recent key.
func (l *List[K]) Oldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	return l.tail.Key, true
}

// Newest calls fn for up to n keys from the most recent down, stopping
// early if fn returns false.
func (l *List[K]) Newest(n int, fn func(K) bool) {
	for node := l.head; node != nil && n > 0; node = node.next {
		if !fn(node.Key) {
			return
		}
		n--
	}
}

func (l *List[K]) pushFront(n *Node[K]) {
	n.list = l
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

func (l *List[K]) unlink(n *Node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.list = nil, nil, nil
	l.len--
}

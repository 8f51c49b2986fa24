package repository

import "math/rand/v2"

// rankIndex is an order-statistics treap over (mmr, id).
//
// Ordering: mmr DESC, then id ASC. In-order traversal yields the leaderboard
// from best to worst, and subtree sizes give positions in O(log n).
type rankIndex struct {
	root *node
}

type node struct {
	id    string
	mmr   int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aMMR, aID) ranks before (bMMR, bID).
func less(aMMR int, aID string, bMMR int, bID string) bool {
	if aMMR != bMMR {
		return aMMR > bMMR
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, mmr int) *node {
	if n == nil {
		return &node{id: id, mmr: mmr, prio: rand.Uint64(), size: 1}
	}
	if less(mmr, id, n.mmr, n.id) {
		n.left = insert(n.left, id, mmr)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, mmr)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, mmr int) *node {
	if n == nil {
		return nil
	}
	switch {
	case mmr == n.mmr && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, mmr)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, mmr)
		}
	case less(mmr, id, n.mmr, n.id):
		n.left = deleteNode(n.left, id, mmr)
	default:
		n.right = deleteNode(n.right, id, mmr)
	}
	fix(n)
	return n
}

func (ix *rankIndex) insert(id string, mmr int) { ix.root = insert(ix.root, id, mmr) }

func (ix *rankIndex) remove(id string, mmr int) { ix.root = deleteNode(ix.root, id, mmr) }

func (ix *rankIndex) update(id string, oldMMR, newMMR int) {
	if oldMMR == newMMR {
		return
	}
	ix.remove(id, oldMMR)
	ix.insert(id, newMMR)
}

func (ix *rankIndex) size() int { return nsize(ix.root) }

// countAbove returns how many entries have strictly higher mmr.
func (ix *rankIndex) countAbove(mmr int) int {
	count := 0
	for n := ix.root; n != nil; {
		if n.mmr > mmr {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// rank returns the competition rank (1224) of mmr.
func (ix *rankIndex) rank(mmr int) int { return ix.countAbove(mmr) + 1 }

// ids returns up to limit ids in leaderboard order, skipping the first offset.
func (ix *rankIndex) ids(offset, limit int) []string {
	if limit <= 0 || offset >= ix.size() {
		return nil
	}
	out := make([]string, 0, min(limit, ix.size()-offset))
	collect(ix.root, &offset, limit, &out)
	return out
}

func collect(n *node, skip *int, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	if *skip >= nsize(n) {
		*skip -= nsize(n)
		return
	}
	collect(n.left, skip, limit, out)
	if len(*out) >= limit {
		return
	}
	if *skip > 0 {
		*skip--
	} else {
		*out = append(*out, n.id)
	}
	collect(n.right, skip, limit, out)
}

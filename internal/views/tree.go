// Package views turns the backend's flat collections into render-ready view
// models. Nothing here performs I/O and no input is mutated.
package views

import "fintrack/internal/core"

// Node is a category with its children in input order
type Node struct {
	core.Category
	Children []*Node `json:"children"`
}

// DropReason explains why a category is missing from the forest
type DropReason string

const (
	// DropOrphan marks a node whose parent id is absent from the input
	DropOrphan DropReason = "orphan"
	// DropOrphanDescendant marks a node hanging below an orphan
	DropOrphanDescendant DropReason = "orphan_descendant"
	// DropCycle marks a node on, or hanging below, a parent cycle
	DropCycle DropReason = "cycle"
)

// DroppedCategory is an input node left out of the forest and why
type DroppedCategory struct {
	ID     int64      `json:"id"`
	Reason DropReason `json:"reason"`
}

// Tree is the category forest plus every input node that could not be placed
type Tree struct {
	Roots   []*Node           `json:"roots"`
	Dropped []DroppedCategory `json:"dropped,omitempty"`
}

// BuildTree links categories into a forest rooted at nodes without a parent.
//
// Children keep input order. A node whose parent is missing is dropped, not
// promoted, and so is everything below it. Only nodes reachable from a root
// are emitted, so parent cycles cannot produce a non-terminating structure.
// Duplicate ids keep the first occurrence.
func BuildTree(categories []core.Category) Tree {
	byID := make(map[int64]*Node, len(categories))
	order := make([]*Node, 0, len(categories))
	for _, c := range categories {
		if _, dup := byID[c.ID]; dup {
			continue
		}
		n := &Node{Category: c, Children: []*Node{}}
		if c.ParentID != nil {
			p := *c.ParentID
			n.ParentID = &p
		}
		byID[c.ID] = n
		order = append(order, n)
	}

	var tree Tree
	tree.Roots = []*Node{}
	for _, n := range order {
		if n.ParentID == nil {
			tree.Roots = append(tree.Roots, n)
			continue
		}
		if parent, ok := byID[*n.ParentID]; ok {
			parent.Children = append(parent.Children, n)
		}
	}

	reached := make(map[int64]bool, len(order))
	for _, root := range tree.Roots {
		markReachable(root, reached)
	}

	for _, n := range order {
		if reached[n.ID] {
			continue
		}
		tree.Dropped = append(tree.Dropped, DroppedCategory{ID: n.ID, Reason: dropReason(n, byID)})
	}
	return tree
}

func markReachable(n *Node, reached map[int64]bool) {
	if reached[n.ID] {
		return
	}
	reached[n.ID] = true
	for _, c := range n.Children {
		markReachable(c, reached)
	}
}

// dropReason walks up the parent chain of an unreachable node
func dropReason(n *Node, byID map[int64]*Node) DropReason {
	seen := map[int64]bool{n.ID: true}
	cur := n
	for {
		parent, ok := byID[*cur.ParentID]
		if !ok {
			if cur == n {
				return DropOrphan
			}
			return DropOrphanDescendant
		}
		if seen[parent.ID] {
			return DropCycle
		}
		seen[parent.ID] = true
		cur = parent
	}
}

// Count returns the number of nodes in the forest
func (t Tree) Count() int {
	total := 0
	t.Walk(func(*Node, int) bool { total++; return true })
	return total
}

// Walk visits nodes depth-first in display order. Returning false from fn
// skips the node's subtree.
func (t Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		visit(r, 0)
	}
}

// Find returns the node with id, or nil
func (t Tree) Find(id int64) *Node {
	var found *Node
	t.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
		}
		return found == nil
	})
	return found
}

// Row is one line of a flattened tree
type Row struct {
	Category    core.Category `json:"category"`
	Depth       int           `json:"depth"`
	HasChildren bool          `json:"has_children"`
	Expanded    bool          `json:"expanded"`
}

// Flatten lists the visible rows given the expanded set. Children of a
// collapsed node are hidden.
func (t Tree) Flatten(expanded map[int64]bool) []Row {
	rows := []Row{}
	t.Walk(func(n *Node, depth int) bool {
		open := expanded[n.ID]
		rows = append(rows, Row{Category: n.Category, Depth: depth, HasChildren: len(n.Children) > 0, Expanded: open})
		return open
	})
	return rows
}

// ParentOptions lists every placed category of the given type, in display order,
// as candidates for a new category's parent
func (t Tree) ParentOptions(typ core.TxType) []Row {
	rows := []Row{}
	t.Walk(func(n *Node, depth int) bool {
		if n.Type == typ {
			rows = append(rows, Row{Category: n.Category, Depth: depth, HasChildren: len(n.Children) > 0})
		}
		return true
	})
	return rows
}

// Deletable reports whether the UI should offer deletion. Usage and children
// are checked by the backend, not here.
func Deletable(c core.Category) bool {
	return !c.IsSystem
}

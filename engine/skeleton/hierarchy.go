package skeleton

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Node is one entry of a Hierarchy arena.
type Node struct {
	// Name is unique within the hierarchy.
	Name string
	// BindLocal is the node's transform relative to its parent, copied unmodified from the import.
	BindLocal mgl32.Mat4
	// Parent is the index of the parent node, or -1 for the root.
	Parent int
	// Children are child node indices in source order.
	Children []int
}

// Hierarchy is an immutable node tree stored as a flat arena. The root is always index 0
// and nodes are laid out in depth-first pre-order, so a parent always precedes its children.
type Hierarchy struct {
	nodes  []Node
	byName map[string]int
}

// NewHierarchy mirrors an imported scene tree into an arena.
//
// Parameters:
//   - root: the imported root node
//
// Returns:
//   - *Hierarchy: the mirrored tree
//   - error: an error wrapping ErrImport if root is nil, a name repeats, or the tree has a cycle
func NewHierarchy(root *common.ImportedNode) (*Hierarchy, error) {
	if root == nil {
		return nil, errors.Wrap(ErrImport, "hierarchy has no root node")
	}

	h := &Hierarchy{byName: make(map[string]int)}
	visited := make(map[*common.ImportedNode]struct{})

	type frame struct {
		src    *common.ImportedNode
		parent int
	}
	stack := []frame{{src: root, parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[f.src]; seen {
			return nil, errors.Wrapf(ErrImport, "node %q appears twice in the scene tree", f.src.Name)
		}
		visited[f.src] = struct{}{}
		if _, dup := h.byName[f.src.Name]; dup {
			return nil, errors.Wrapf(ErrImport, "duplicate node name %q", f.src.Name)
		}

		idx := len(h.nodes)
		h.nodes = append(h.nodes, Node{
			Name:      f.src.Name,
			BindLocal: f.src.Transform,
			Parent:    f.parent,
		})
		h.byName[f.src.Name] = idx
		if f.parent >= 0 {
			h.nodes[f.parent].Children = append(h.nodes[f.parent].Children, idx)
		}

		// reversed so the first child is popped first
		for i := len(f.src.Children) - 1; i >= 0; i-- {
			child := f.src.Children[i]
			if child == nil {
				continue
			}
			stack = append(stack, frame{src: child, parent: idx})
		}
	}
	return h, nil
}

// Len returns the number of nodes.
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// Root returns the root node.
func (h *Hierarchy) Root() *Node {
	return &h.nodes[0]
}

// Node returns the node at index i. The returned node must not be modified.
func (h *Hierarchy) Node(i int) *Node {
	return &h.nodes[i]
}

// Index returns the arena index of the node called name.
func (h *Hierarchy) Index(name string) (int, bool) {
	i, ok := h.byName[name]
	return i, ok
}

// GlobalBindTransform returns the product of bind-local transforms from the root down to
// node i, i.e. the node's bind pose in model space.
func (h *Hierarchy) GlobalBindTransform(i int) mgl32.Mat4 {
	m := mgl32.Ident4()
	for ; i >= 0; i = h.nodes[i].Parent {
		m = h.nodes[i].BindLocal.Mul4(m)
	}
	return m
}

// Walk visits every node depth-first from the root, passing each node's index and its
// global transform (parent global times local). Nodes are stored in pre-order, so the walk is
// a single pass over the arena with no stack. globals is scratch space reused across calls.
//
// Parameters:
//   - globals: scratch buffer for per-node global transforms, may be nil
//   - local: returns the local transform for a node index
//   - visit: called with the node index and its global transform
//
// Returns:
//   - []mgl32.Mat4: the scratch buffer, grown to Len(), holding every node's global transform
func (h *Hierarchy) Walk(globals []mgl32.Mat4, local func(i int) mgl32.Mat4, visit func(i int, global mgl32.Mat4)) []mgl32.Mat4 {
	if cap(globals) < len(h.nodes) {
		globals = make([]mgl32.Mat4, len(h.nodes))
	}
	globals = globals[:len(h.nodes)]

	for i := range h.nodes {
		global := local(i)
		if p := h.nodes[i].Parent; p >= 0 {
			global = globals[p].Mul4(global)
		}
		globals[i] = global
		visit(i, global)
	}
	return globals
}

package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	parser gltfParser
	names  []string
}

// gltfSkeletonExtractor defines the interface for extracting the node hierarchy from a parsed glTF document.
// glTF addresses nodes by index while clips and bone weight tables address them by name, so the
// extractor assigns every node a unique name: unnamed nodes become "node_<index>" and repeated
// names get an "_<index>" suffix.
type gltfSkeletonExtractor interface {
	// NodeName returns the unique name assigned to node i.
	//
	// Parameters:
	//   - i: the glTF node index
	//
	// Returns:
	//   - string: the node name, or "" if i is out of range
	NodeName(i int) string

	// NodeTransform returns the local transform of node i, from its matrix when one is set
	// and from its translation, rotation and scale otherwise.
	//
	// Parameters:
	//   - i: the glTF node index
	//
	// Returns:
	//   - mgl32.Mat4: the local transform, or identity if i is out of range
	NodeTransform(i int) mgl32.Mat4

	// ExtractSceneTree builds the node tree of the default scene. A scene with several root
	// nodes gets a synthetic identity root named after the scene. Documents without scenes
	// use every node that is nobody's child as a root.
	//
	// Returns:
	//   - *common.ImportedNode: the root, or nil if the document has no nodes
	//   - error: error wrapping skeleton.ErrImport on dangling child indices or cycles
	ExtractSceneTree() (*common.ImportedNode, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfSkeletonExtractor: the skeleton extractor
func newGLTFSkeletonExtractor(parser gltfParser) gltfSkeletonExtractor {
	e := &gltfSkeletonExtractorImpl{parser: parser}
	if doc := parser.Document(); doc != nil {
		e.names = gltfUniqueNodeNames(doc.Nodes)
	}
	return e
}

func (e *gltfSkeletonExtractorImpl) NodeName(i int) string {
	if i < 0 || i >= len(e.names) {
		return ""
	}
	return e.names[i]
}

func (e *gltfSkeletonExtractorImpl) NodeTransform(i int) mgl32.Mat4 {
	doc := e.parser.Document()
	if doc == nil || i < 0 || i >= len(doc.Nodes) || doc.Nodes[i] == nil {
		return mgl32.Ident4()
	}
	return gltfNodeTransform(doc.Nodes[i])
}

func (e *gltfSkeletonExtractorImpl) ExtractSceneTree() (*common.ImportedNode, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}
	if len(doc.Nodes) == 0 {
		return nil, nil
	}

	roots, sceneName, err := e.sceneRoots(doc)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, nil
	}

	type pending struct {
		node   uint32
		parent *common.ImportedNode
	}

	var top *common.ImportedNode
	if len(roots) > 1 {
		top = &common.ImportedNode{Name: gltfUniqueName(sceneName, e.names), Transform: mgl32.Ident4()}
	}

	visited := make([]bool, len(doc.Nodes))
	stack := make([]pending, 0, len(doc.Nodes))
	for r := len(roots) - 1; r >= 0; r-- {
		stack = append(stack, pending{node: roots[r], parent: top})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(p.node) >= len(doc.Nodes) || doc.Nodes[p.node] == nil {
			return nil, errors.Wrapf(skeleton.ErrImport, "node %d out of range (%d nodes)", p.node, len(doc.Nodes))
		}
		if visited[p.node] {
			return nil, errors.Wrapf(skeleton.ErrImport, "node %q is reachable more than once", e.names[p.node])
		}
		visited[p.node] = true

		src := doc.Nodes[p.node]
		n := &common.ImportedNode{
			Name:      e.names[p.node],
			Transform: gltfNodeTransform(src),
		}
		if p.parent == nil {
			top = n
		} else {
			p.parent.Children = append(p.parent.Children, n)
		}

		for c := len(src.Children) - 1; c >= 0; c-- {
			stack = append(stack, pending{node: src.Children[c], parent: n})
		}
	}

	return top, nil
}

// sceneRoots returns the root node indices and name of the default scene.
func (e *gltfSkeletonExtractorImpl) sceneRoots(doc *gltf.Document) ([]uint32, string, error) {
	if len(doc.Scenes) > 0 {
		idx := uint32(0)
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if int(idx) >= len(doc.Scenes) || doc.Scenes[idx] == nil {
			return nil, "", errors.Wrapf(skeleton.ErrImport, "default scene %d out of range (%d scenes)", idx, len(doc.Scenes))
		}
		name := doc.Scenes[idx].Name
		if name == "" {
			name = fmt.Sprintf("scene_%d", idx)
		}
		return doc.Scenes[idx].Nodes, name, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			if int(c) < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []uint32
	for i, child := range isChild {
		if !child && doc.Nodes[i] != nil {
			roots = append(roots, uint32(i))
		}
	}
	return roots, "scene_0", nil
}

// gltfNodeTransform returns the local transform of a glTF node.
func gltfNodeTransform(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return mgl32.Mat4(m)
	}
	return common.ComposeTRS(
		mgl32.Vec3(n.TranslationOrDefault()),
		gltfQuat(n.RotationOrDefault()).Normalize(),
		mgl32.Vec3(n.ScaleOrDefault()),
	)
}

// gltfUniqueNodeNames assigns every node a name no other node shares.
func gltfUniqueNodeNames(nodes []*gltf.Node) []string {
	names := make([]string, len(nodes))
	taken := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		name := ""
		if n != nil {
			name = n.Name
		}
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		for taken[name] {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// gltfUniqueName returns name, suffixed until it differs from every entry of names.
func gltfUniqueName(name string, names []string) string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	for taken[name] {
		name = "_" + name
	}
	return name
}

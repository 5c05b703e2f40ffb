package loader

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// towerDocument builds a scene with two roots, "Armature" -> "Root" -> "Spine" and a skinned
// "Body" mesh node, plus a clip "rise" translating Spine from (0,0,0) to (0,10,0) over 10s.
func towerDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Scenes[0].Name = "Tower"

	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 1, 0, 0}, {1, 0, 0, 0}, {0, 0, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{0.5, 0.5, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}})
	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -1, 0, 1}},
	})
	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 10})
	values := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {0, 10, 0}})

	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []uint32{1}},
		{Name: "Root", Children: []uint32{2}},
		{Name: "Spine", Translation: [3]float32{0, 1, 0}},
		{Name: "Body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []uint32{0, 3}
	doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{
				gltf.POSITION: positions,
				"JOINTS_0":    joints,
				"WEIGHTS_0":   weights,
			},
		}},
	}}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{1, 2}, InverseBindMatrices: gltf.Index(ibm)}}
	doc.Animations = []*gltf.Animation{{
		Name:     "rise",
		Samplers: []*gltf.AnimationSampler{{Input: gltf.Index(times), Output: gltf.Index(values)}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(2), Path: gltf.TRSTranslation},
		}},
	}}
	return doc
}

func encodeGLB(t *testing.T, doc *gltf.Document) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gltf.NewEncoder(&buf).Encode(doc))
	return &buf
}

func testLoader(t *testing.T, options ...LoaderBuilderOption) (Loader, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := config.Default()
	cfg.ImportWorkers = 2
	l := NewLoader(BackendTypeGLTF, append([]LoaderBuilderOption{WithConfig(cfg), WithLogger(logger)}, options...)...)
	t.Cleanup(l.Close)
	return l, hook
}

func TestExtractSceneTree(t *testing.T) {
	skel := newGLTFSkeletonExtractor(newGLTFParserFromDocument(towerDocument()))
	root, err := skel.ExtractSceneTree()
	require.NoError(t, err)

	require.NotNil(t, root)
	assert.Equal(t, "Tower", root.Name)
	assert.Equal(t, mgl32.Ident4(), root.Transform)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Armature", root.Children[0].Name)
	assert.Equal(t, "Body", root.Children[1].Name)

	spine := root.Children[0].Children[0].Children[0]
	assert.Equal(t, "Spine", spine.Name)
	assert.Equal(t, mgl32.Translate3D(0, 1, 0), spine.Transform)
	assert.Equal(t, 5, root.NodeCount())
}

func TestExtractSceneTreeErrors(t *testing.T) {
	cycle := gltf.NewDocument()
	cycle.Nodes = []*gltf.Node{{Name: "A", Children: []uint32{1}}, {Name: "B", Children: []uint32{0}}}
	cycle.Scenes[0].Nodes = []uint32{0}
	_, err := newGLTFSkeletonExtractor(newGLTFParserFromDocument(cycle)).ExtractSceneTree()
	assert.ErrorIs(t, err, skeleton.ErrImport)

	dangling := gltf.NewDocument()
	dangling.Nodes = []*gltf.Node{{Name: "A", Children: []uint32{7}}}
	dangling.Scenes[0].Nodes = []uint32{0}
	_, err = newGLTFSkeletonExtractor(newGLTFParserFromDocument(dangling)).ExtractSceneTree()
	assert.ErrorIs(t, err, skeleton.ErrImport)
}

func TestNodeNamesAreUnique(t *testing.T) {
	names := gltfUniqueNodeNames([]*gltf.Node{{Name: "Bone"}, {}, {Name: "Bone"}, {Name: "node_1"}})
	assert.Equal(t, []string{"Bone", "node_1", "Bone_2", "node_1_3"}, names)
}

func TestExtractAnimationFillsRestPose(t *testing.T) {
	parser := newGLTFParserFromDocument(towerDocument())
	anims, err := newGLTFAnimationExtractor(parser, newGLTFSkeletonExtractor(parser)).ExtractAllAnimations()
	require.NoError(t, err)
	require.Len(t, anims, 1)

	anim := anims[0]
	assert.Equal(t, "rise", anim.Name)
	assert.Equal(t, float32(10), anim.Duration)
	assert.Equal(t, float32(1), anim.TicksPerSecond)
	require.Len(t, anim.Channels, 1)

	ch := anim.Channels[0]
	assert.Equal(t, "Spine", ch.JointName)
	require.Len(t, ch.PositionKeys, 2)
	assert.Equal(t, mgl32.Vec3{0, 10, 0}, ch.PositionKeys[1].Value)
	require.Len(t, ch.RotationKeys, 1)
	assert.InDelta(t, 1, ch.RotationKeys[0].Value.W, 1e-6)
	require.Len(t, ch.ScaleKeys, 1)
	assert.True(t, ch.ScaleKeys[0].Value.ApproxEqual(mgl32.Vec3{1, 1, 1}))
}

func TestCubicSplineKeepsValues(t *testing.T) {
	values, err := gltfKeyValues([]float32{9, 1, 9, 9, 2, 9}, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, values)

	_, err = gltfKeyValues([]float32{1, 2, 3}, 2, false)
	assert.ErrorIs(t, err, skeleton.ErrImport)
}

func TestExtractMeshInfluences(t *testing.T) {
	parser := newGLTFParserFromDocument(towerDocument())
	meshes, err := newGLTFMeshExtractor(parser, newGLTFSkeletonExtractor(parser)).ExtractAllMeshes()
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	mesh := meshes[0]
	assert.Equal(t, "body", mesh.Name)
	assert.Equal(t, 3, mesh.VertexCount)
	require.Len(t, mesh.Bones, 2)
	assert.Equal(t, "Root", mesh.Bones[0].Name)
	assert.Equal(t, mgl32.Ident4(), mesh.Bones[0].Offset)
	assert.Equal(t, "Spine", mesh.Bones[1].Name)
	assert.Equal(t, mgl32.Translate3D(0, -1, 0), mesh.Bones[1].Offset)

	assert.Equal(t, []common.VertexWeight{{VertexID: 0, Weight: 0.5}, {VertexID: 2, Weight: 1}}, mesh.Bones[0].Weights)
	assert.Equal(t, []common.VertexWeight{{VertexID: 0, Weight: 0.5}, {VertexID: 1, Weight: 1}}, mesh.Bones[1].Weights)
}

func TestLoadReader(t *testing.T) {
	l, hook := testLoader(t)
	m, err := l.LoadReader("tower", encodeGLB(t, towerDocument()))
	require.NoError(t, err)

	assert.Equal(t, "Tower", m.Name())
	assert.True(t, m.Skinned())
	assert.Equal(t, []string{"rise"}, m.AnimationNames())

	// mesh bones are registered before any clip joint
	table := m.BoneWeights()
	assert.Equal(t, []string{"Root", "Spine"}, table.Names())
	spine, ok := table.Lookup("Spine")
	require.True(t, ok)
	assert.Equal(t, 1, spine.Index)
	assert.Equal(t, mgl32.Translate3D(0, -1, 0), spine.Offset)

	require.Len(t, m.Meshes(), 1)
	bindings := m.Meshes()[0].Bindings
	assert.Equal(t, [4]int32{0, 1, -1, -1}, bindings[0].BoneIDs)
	assert.Equal(t, [4]int32{1, -1, -1, -1}, bindings[1].BoneIDs)

	clip := m.Animation(0)
	track := clip.Track("Spine")
	require.NotNil(t, track)
	assert.Equal(t, mgl32.Translate3D(0, 5, 0), track.LocalTransform(5))

	assert.Same(t, m, l.Get("tower"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "model loaded", hook.LastEntry().Message)
	assert.Equal(t, "tower", hook.LastEntry().Data["model"])
}

func TestLoadFromFileIsCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tower.glb")
	require.NoError(t, gltf.SaveBinary(towerDocument(), path))

	l, _ := testLoader(t)
	first, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tower", first.Name())

	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, l.Models(), 1)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	l, _ := testLoader(t)
	_, err := l.Load("tower.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadReaderMalformedDocument(t *testing.T) {
	doc := towerDocument()
	doc.Skins[0].Joints = []uint32{1, 9}

	l, _ := testLoader(t)
	_, err := l.LoadReader("broken", encodeGLB(t, doc))
	assert.ErrorIs(t, err, skeleton.ErrImport)
	assert.Nil(t, l.Get("broken"))
}

func TestImportCapacity(t *testing.T) {
	bones := make([]common.ImportedBone, 3)
	for i := range bones {
		bones[i] = common.ImportedBone{Name: string(rune('a' + i)), Offset: mgl32.Ident4()}
	}
	cfg := config.Default()
	cfg.MaxBones = 2

	l, _ := testLoader(t, WithConfig(cfg))
	_, err := l.Import("wide", &common.ImportedModel{
		Meshes: []common.ImportedMesh{{Name: "m", VertexCount: 1, Bones: bones}},
	})
	assert.ErrorIs(t, err, skeleton.ErrCapacity)
}

func TestImportWarnsAboutDroppedInfluences(t *testing.T) {
	bones := make([]common.ImportedBone, 5)
	for i := range bones {
		bones[i] = common.ImportedBone{
			Name:    string(rune('a' + i)),
			Offset:  mgl32.Ident4(),
			Weights: []common.VertexWeight{{VertexID: 0, Weight: 0.2}},
		}
	}

	l, hook := testLoader(t)
	m, err := l.Import("crowded", &common.ImportedModel{
		Meshes: []common.ImportedMesh{{Name: "m", VertexCount: 1, Bones: bones}},
	})
	require.NoError(t, err)
	assert.Equal(t, "crowded", m.Name())
	assert.Equal(t, 1, m.Meshes()[0].DroppedInfluences)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["mesh"] == "m" {
			warned = true
		}
	}
	assert.True(t, warned)
}

// countingBackend counts loads and serves a fixed document.
type countingBackend struct {
	loads atomic.Int32
	doc   *gltf.Document
}

func (b *countingBackend) Load(string) (*common.ImportedModel, error) {
	b.loads.Add(1)
	return newGLTFImporter().(*gltfImporterImpl).importFromParser(newGLTFParserFromDocument(b.doc), "")
}

func (b *countingBackend) LoadReader(io.Reader) (*common.ImportedModel, error) {
	return b.Load("")
}

func TestLoadAsync(t *testing.T) {
	backend := &countingBackend{doc: towerDocument()}
	l, _ := testLoader(t, withBackend(backend))

	pending := l.LoadAsync("tower.glb")
	assert.Equal(t, "tower.glb", pending.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := pending.Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, pending.Ready())
	assert.Equal(t, 1, m.AnimationCount())
	assert.Same(t, m, l.Get("tower.glb"))

	again := l.LoadAsync("tower.glb")
	assert.True(t, again.Ready())
	cached, err := again.Wait(ctx)
	require.NoError(t, err)
	assert.Same(t, m, cached)
	assert.Equal(t, int32(1), backend.loads.Load())
}

func TestLoadAsyncReportsErrors(t *testing.T) {
	l, _ := testLoader(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := l.LoadAsync(filepath.Join(t.TempDir(), "missing.glb")).Wait(ctx)
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestPendingModelWaitHonoursContext(t *testing.T) {
	p := newPendingModel("slow")
	assert.False(t, p.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	p.resolve(nil, nil)
	assert.True(t, p.Ready())
	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

// blockingBackend holds every load until release is closed.
type blockingBackend struct {
	started chan string
	release chan struct{}
}

func (b *blockingBackend) Load(path string) (*common.ImportedModel, error) {
	b.started <- path
	<-b.release
	return nil, errors.Wrap(skeleton.ErrImport, "released")
}

func (b *blockingBackend) LoadReader(io.Reader) (*common.ImportedModel, error) {
	return b.Load("")
}

func TestCloseResolvesPendingLoads(t *testing.T) {
	backend := &blockingBackend{started: make(chan string, 4), release: make(chan struct{})}
	t.Cleanup(func() { close(backend.release) })
	l, hook := testLoader(t, withBackend(backend))

	running := l.LoadAsync("a.glb")
	queued := l.LoadAsync("b.glb")
	select {
	case <-backend.started:
	case <-time.After(5 * time.Second):
		t.Fatal("no load started")
	}
	assert.False(t, running.Ready())

	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, p := range []*PendingModel{running, queued} {
		m, err := p.Wait(ctx)
		assert.ErrorIs(t, err, ErrClosed, p.Name())
		assert.Nil(t, m)
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	after := l.LoadAsync("a.glb")
	assert.True(t, after.Ready())
	_, err := after.Wait(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestImportRejectsAnimationWithoutChannels(t *testing.T) {
	l, hook := testLoader(t)
	_, err := l.Import("still", &common.ImportedModel{
		Root:       &common.ImportedNode{Name: "Root", Transform: mgl32.Ident4()},
		Animations: []common.ImportedAnimation{{Name: "empty", Duration: 1, TicksPerSecond: 1}},
	})
	assert.ErrorIs(t, err, skeleton.ErrImport)
	assert.Nil(t, l.Get("still"))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "empty", hook.LastEntry().Data["clip"])
}

func TestLoadReaderRejectsMorphOnlyAnimation(t *testing.T) {
	doc := towerDocument()
	doc.Animations[0].Channels[0].Target.Path = gltf.TRSWeights

	l, _ := testLoader(t)
	_, err := l.LoadReader("morph", encodeGLB(t, doc))
	assert.ErrorIs(t, err, skeleton.ErrImport)
}

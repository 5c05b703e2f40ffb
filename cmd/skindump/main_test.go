package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/animator"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTower saves a two-bone model whose Spine rises from y=0 to y=10 over 10 seconds.
func writeTower(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0, 1, 0}})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 0, 0, 0}, {1, 0, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}})
	ibm := modeler.WriteAccessor(doc, gltf.TargetNone, [][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -1, 0, 1}},
	})
	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 10})
	values := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {0, 10, 0}})

	doc.Nodes = []*gltf.Node{
		{Name: "Root", Children: []uint32{1}},
		{Name: "Spine", Translation: [3]float32{0, 1, 0}},
		{Name: "Body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []uint32{0, 2}
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
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 1}, InverseBindMatrices: gltf.Index(ibm)}}
	doc.Animations = []*gltf.Animation{{
		Name:     "rise",
		Samplers: []*gltf.AnimationSampler{{Input: gltf.Index(times), Output: gltf.Index(values)}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(1), Path: gltf.TRSTranslation},
		}},
	}}

	path := filepath.Join(t.TempDir(), "tower.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func runDump(t *testing.T, opts runOptions) string {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	cfg := config.Default()
	cfg.ImportWorkers = 1
	if opts.timeout == 0 {
		opts.timeout = 5 * time.Second
	}

	var out bytes.Buffer
	require.NoError(t, run(cfg, logger, opts, &out))
	return out.String()
}

func TestRunStepsFrames(t *testing.T) {
	out := runDump(t, runOptions{path: writeTower(t), frames: 5, dt: 1, seek: -1})

	assert.Contains(t, out, `model "tower": 2 bones`)
	assert.Contains(t, out, `clip 0 "rise"`)
	assert.Contains(t, out, `clip "rise" at t=5.0000 ticks`)
	assert.Contains(t, out, `bone   1 "Spine"`)
	// Root stays at identity and is hidden without -all
	assert.NotContains(t, out, `bone   0 "Root"`)
}

func TestRunSeekAllAndDump(t *testing.T) {
	out := runDump(t, runOptions{path: writeTower(t), clip: "0", seek: 2, all: true, dump: true})

	assert.Contains(t, out, `clip "rise" at t=2.0000 ticks`)
	assert.Contains(t, out, `bone   0 "Root"`)
	assert.Contains(t, out, `Joint: (string) (len=5) "Spine"`)
	assert.Contains(t, out, "Positions: (int) 2")
	assert.Contains(t, out, "DroppedInfluences:")
}

func TestRunMissingFile(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	var out bytes.Buffer
	err := run(config.Default(), logger, runOptions{path: filepath.Join(t.TempDir(), "nope.glb"), timeout: time.Second}, &out)
	assert.Error(t, err)
}

func TestPlayClipWithoutModel(t *testing.T) {
	a := animator.NewAnimator()
	assert.ErrorIs(t, playClip(a, "rise"), animator.ErrNoModel)
	assert.ErrorIs(t, playClip(a, "2"), animator.ErrNoModel)
}

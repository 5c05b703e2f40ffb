package animation

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AnimationClip is an imported, immutable keyframed animation: a bind hierarchy plus one
// KeyframeTrack per animated joint. Clips are built once at import and may be shared
// read-only by any number of evaluators.
type AnimationClip struct {
	name              string
	duration          float32
	ticksPerSecond    float32
	hierarchy         *skeleton.Hierarchy
	table             *skeleton.BoneWeightTable
	tracks            map[string]*KeyframeTrack
	jointNames        []string
	nodeTracks        []*KeyframeTrack
	globalInverseRoot mgl32.Mat4
}

// NewAnimationClip translates an imported animation into a clip.
//
// Bone indices for every animated joint are resolved through table, so clips imported
// against the same table share indices. Joints the table has not seen are allocated with an
// identity offset. The scene tree is mirrored unmodified, including the root transform.
// On error no clip is returned; indices already allocated in table stay allocated.
//
// Parameters:
//   - src: the imported animation
//   - root: the root of the imported scene tree
//   - table: the model's bone weight table
//   - options: variadic list of ClipBuilderOption functions
//
// Returns:
//   - *AnimationClip: the translated clip
//   - error: an error wrapping ErrImport, or skeleton.ErrCapacity when the table is full
func NewAnimationClip(src common.ImportedAnimation, root *common.ImportedNode, table *skeleton.BoneWeightTable, options ...ClipBuilderOption) (*AnimationClip, error) {
	b := &clipBuilder{
		logger:                logrus.StandardLogger(),
		defaultTicksPerSecond: 25,
	}
	for _, opt := range options {
		opt(b)
	}
	log := b.logger.WithField("clip", src.Name)

	if table == nil {
		return nil, errors.Wrapf(ErrImport, "clip %q: no bone weight table", src.Name)
	}
	if root == nil {
		return nil, errors.Wrapf(ErrImport, "clip %q: missing root node", src.Name)
	}
	if len(src.Channels) == 0 {
		return nil, errors.Wrapf(ErrImport, "clip %q: no animation channels", src.Name)
	}
	if !common.IsFinite(src.Duration) || src.Duration < 0 {
		return nil, errors.Wrapf(ErrImport, "clip %q: invalid duration %v", src.Name, src.Duration)
	}
	if !common.IsFinite(src.TicksPerSecond) {
		return nil, errors.Wrapf(ErrImport, "clip %q: invalid ticks per second %v", src.Name, src.TicksPerSecond)
	}

	hierarchy, err := skeleton.NewHierarchy(root)
	if err != nil {
		return nil, errors.Wrapf(err, "clip %q", src.Name)
	}

	c := &AnimationClip{
		name:              src.Name,
		duration:          src.Duration,
		ticksPerSecond:    src.TicksPerSecond,
		hierarchy:         hierarchy,
		table:             table,
		tracks:            make(map[string]*KeyframeTrack, len(src.Channels)),
		jointNames:        make([]string, 0, len(src.Channels)),
		nodeTracks:        make([]*KeyframeTrack, hierarchy.Len()),
		globalInverseRoot: root.Transform.Inv(),
	}
	if c.ticksPerSecond == 0 {
		c.ticksPerSecond = b.defaultTicksPerSecond
		log.WithField("ticks_per_second", c.ticksPerSecond).Debug("source has no tick rate, using default")
	}

	// validate every channel before touching the table
	for _, ch := range src.Channels {
		if _, dup := c.tracks[ch.JointName]; dup {
			return nil, errors.Wrapf(ErrImport, "clip %q: joint %q has more than one channel", src.Name, ch.JointName)
		}
		track, err := NewKeyframeTrack(ch, -1, log)
		if err != nil {
			return nil, errors.Wrapf(err, "clip %q", src.Name)
		}
		c.tracks[ch.JointName] = track
		c.jointNames = append(c.jointNames, ch.JointName)
	}

	for _, name := range c.jointNames {
		index, err := table.Resolve(name)
		if err != nil {
			return nil, errors.Wrapf(err, "clip %q", src.Name)
		}
		track := c.tracks[name]
		track.boneIndex = index
		if node, ok := hierarchy.Index(name); ok {
			c.nodeTracks[node] = track
		} else {
			log.WithField("joint", name).Debug("animated joint is not in the scene tree")
		}
	}

	return c, nil
}

// BoneWeights returns the table the clip's bone indices were resolved against.
// Evaluators playing the clip must place joints through this same table.
func (c *AnimationClip) BoneWeights() *skeleton.BoneWeightTable {
	return c.table
}

// Name returns the clip name.
func (c *AnimationClip) Name() string {
	return c.name
}

// Duration returns the clip length in ticks.
func (c *AnimationClip) Duration() float32 {
	return c.duration
}

// TicksPerSecond returns the playback rate.
func (c *AnimationClip) TicksPerSecond() float32 {
	return c.ticksPerSecond
}

// DurationSeconds returns the clip length in seconds.
func (c *AnimationClip) DurationSeconds() float32 {
	if c.ticksPerSecond == 0 {
		return 0
	}
	return c.duration / c.ticksPerSecond
}

// Hierarchy returns the clip's bind hierarchy.
func (c *AnimationClip) Hierarchy() *skeleton.Hierarchy {
	return c.hierarchy
}

// Track returns the track animating name, or nil.
func (c *AnimationClip) Track(name string) *KeyframeTrack {
	return c.tracks[name]
}

// NodeTrack returns the track animating the hierarchy node at index i, or nil.
func (c *AnimationClip) NodeTrack(i int) *KeyframeTrack {
	return c.nodeTracks[i]
}

// TrackCount returns the number of animated joints.
func (c *AnimationClip) TrackCount() int {
	return len(c.tracks)
}

// JointNames returns the animated joint names in import order.
func (c *AnimationClip) JointNames() []string {
	out := make([]string, len(c.jointNames))
	copy(out, c.jointNames)
	return out
}

// GlobalInverseRoot returns the inverse of the root node's bind transform.
// Evaluation never applies it; it is exposed for callers that want root-relative palettes.
func (c *AnimationClip) GlobalInverseRoot() mgl32.Mat4 {
	return c.globalInverseRoot
}

package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// gltfTicksPerSecond is the tick rate of every glTF clip: sampler inputs are in seconds.
const gltfTicksPerSecond = 1

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser   gltfParser
	skeleton gltfSkeletonExtractor
}

// gltfAnimationExtractor defines the interface for extracting keyframed clips from a parsed glTF document.
//
// glTF stores one sampler per animated property, while a clip channel carries all three
// properties of one joint. Channels are therefore grouped by target node, and a property the
// clip does not animate is filled with a single key holding the node's rest value.
// Morph target weight channels are skipped. CUBICSPLINE samplers keep only their key values,
// dropping the tangents, and are played back linearly.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - common.ImportedAnimation: the extracted clip, possibly without channels
	//   - error: error wrapping skeleton.ErrImport if the animation is malformed
	ExtractAnimation(animIndex int) (common.ImportedAnimation, error)

	// ExtractAllAnimations extracts every animation from the document, in document order.
	//
	// Returns:
	//   - []common.ImportedAnimation: all extracted clips
	//   - error: error if any extraction fails
	ExtractAllAnimations() ([]common.ImportedAnimation, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - skel: the skeleton extractor providing node names and rest transforms
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser, skel gltfSkeletonExtractor) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser, skeleton: skel}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (common.ImportedAnimation, error) {
	doc := e.parser.Document()
	if doc == nil {
		return common.ImportedAnimation{}, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) || doc.Animations[animIndex] == nil {
		return common.ImportedAnimation{}, errors.Wrapf(skeleton.ErrImport, "animation index %d out of range", animIndex)
	}

	anim := doc.Animations[animIndex]
	out := common.ImportedAnimation{
		Name:           anim.Name,
		TicksPerSecond: gltfTicksPerSecond,
	}
	if out.Name == "" {
		out.Name = fmt.Sprintf("animation_%d", animIndex)
	}

	// channelMap groups glTF channels by target node; order keeps first appearance.
	channelMap := make(map[uint32]*common.ImportedChannel)
	var order []uint32

	for i, ch := range anim.Channels {
		if ch == nil || ch.Target.Node == nil || ch.Target.Path == gltf.TRSWeights {
			continue
		}
		nodeIndex := *ch.Target.Node
		if int(nodeIndex) >= len(doc.Nodes) {
			return out, errors.Wrapf(skeleton.ErrImport, "animation %q channel %d: node %d out of range", out.Name, i, nodeIndex)
		}
		if ch.Sampler == nil || int(*ch.Sampler) >= len(anim.Samplers) || anim.Samplers[*ch.Sampler] == nil {
			return out, errors.Wrapf(skeleton.ErrImport, "animation %q channel %d: invalid sampler", out.Name, i)
		}
		sampler := anim.Samplers[*ch.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			return out, errors.Wrapf(skeleton.ErrImport, "animation %q channel %d: sampler without input or output", out.Name, i)
		}

		times, err := e.parser.ReadScalars(*sampler.Input)
		if err != nil {
			return out, errors.Wrapf(err, "animation %q channel %d: timestamps", out.Name, i)
		}
		if n := len(times); n > 0 && times[n-1] > out.Duration {
			out.Duration = times[n-1]
		}

		target, ok := channelMap[nodeIndex]
		if !ok {
			target = &common.ImportedChannel{JointName: e.skeleton.NodeName(int(nodeIndex))}
			channelMap[nodeIndex] = target
			order = append(order, nodeIndex)
		}

		cubic := sampler.Interpolation == gltf.InterpolationCubicSpline
		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, err := e.parser.ReadVec3s(*sampler.Output)
			if err != nil {
				return out, errors.Wrapf(err, "animation %q channel %d: values", out.Name, i)
			}
			values, err = gltfKeyValues(values, len(times), cubic)
			if err != nil {
				return out, errors.Wrapf(err, "animation %q channel %d", out.Name, i)
			}
			keys := make([]common.VectorKeyframe, len(times))
			for k := range times {
				keys[k] = common.VectorKeyframe{Time: times[k], Value: values[k]}
			}
			if ch.Target.Path == gltf.TRSTranslation {
				target.PositionKeys = keys
			} else {
				target.ScaleKeys = keys
			}
		case gltf.TRSRotation:
			values, err := e.parser.ReadQuats(*sampler.Output)
			if err != nil {
				return out, errors.Wrapf(err, "animation %q channel %d: values", out.Name, i)
			}
			values, err = gltfKeyValues(values, len(times), cubic)
			if err != nil {
				return out, errors.Wrapf(err, "animation %q channel %d", out.Name, i)
			}
			keys := make([]common.QuaternionKeyframe, len(times))
			for k := range times {
				keys[k] = common.QuaternionKeyframe{Time: times[k], Value: values[k]}
			}
			target.RotationKeys = keys
		}
	}

	out.Channels = make([]common.ImportedChannel, 0, len(order))
	for _, nodeIndex := range order {
		ch := channelMap[nodeIndex]
		e.fillRestPose(ch, int(nodeIndex))
		out.Channels = append(out.Channels, *ch)
	}
	return out, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]common.ImportedAnimation, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errors.Wrap(skeleton.ErrImport, "no document loaded")
	}

	animations := make([]common.ImportedAnimation, 0, len(doc.Animations))
	for i := range doc.Animations {
		anim, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, err
		}
		animations = append(animations, anim)
	}
	return animations, nil
}

// fillRestPose gives every property the clip leaves unanimated a single key at the node's rest value.
func (e *gltfAnimationExtractorImpl) fillRestPose(ch *common.ImportedChannel, nodeIndex int) {
	if len(ch.PositionKeys) > 0 && len(ch.RotationKeys) > 0 && len(ch.ScaleKeys) > 0 {
		return
	}
	t, r, s := common.DecomposeTRS(e.skeleton.NodeTransform(nodeIndex))
	if len(ch.PositionKeys) == 0 {
		ch.PositionKeys = []common.VectorKeyframe{{Time: 0, Value: t}}
	}
	if len(ch.RotationKeys) == 0 {
		ch.RotationKeys = []common.QuaternionKeyframe{{Time: 0, Value: r}}
	}
	if len(ch.ScaleKeys) == 0 {
		ch.ScaleKeys = []common.VectorKeyframe{{Time: 0, Value: s}}
	}
}

// gltfKeyValues checks a sampler output against its key count and, for CUBICSPLINE samplers,
// strips the in and out tangents stored around every value.
func gltfKeyValues[T any](values []T, keys int, cubic bool) ([]T, error) {
	if !cubic {
		if len(values) != keys {
			return nil, errors.Wrapf(skeleton.ErrImport, "%d values for %d keys", len(values), keys)
		}
		return values, nil
	}
	if len(values) != keys*3 {
		return nil, errors.Wrapf(skeleton.ErrImport, "%d cubic spline values for %d keys", len(values), keys)
	}
	out := make([]T, keys)
	for k := range keys {
		out[k] = values[k*3+1]
	}
	return out, nil
}

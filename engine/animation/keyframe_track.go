// Package animation translates imported keyframe data into immutable, shareable clips and
// interpolates per-joint local transforms from them.
package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// KeyframeTrack holds the position, rotation, and scale keys of one joint.
// A track is immutable after construction and safe to share between evaluators.
type KeyframeTrack struct {
	jointName string
	boneIndex int

	positions []common.VectorKeyframe
	rotations []common.QuaternionKeyframe
	scales    []common.VectorKeyframe

	degenerateKeys int
}

// NewKeyframeTrack validates and copies the keys of an imported channel.
//
// Every channel must hold at least one key, key times must be finite and non-decreasing,
// and key values must be finite. Rotation keys are stored normalized. Adjacent keys that
// share a timestamp are accepted but logged as degenerate.
//
// Parameters:
//   - channel: the imported channel
//   - boneIndex: the joint's bone index, or -1 if it has none
//   - logger: receives degenerate-key warnings; nil uses the standard logger
//
// Returns:
//   - *KeyframeTrack: the new track
//   - error: an error wrapping ErrImport if the channel is malformed
func NewKeyframeTrack(channel common.ImportedChannel, boneIndex int, logger logrus.FieldLogger) (*KeyframeTrack, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	t := &KeyframeTrack{
		jointName: channel.JointName,
		boneIndex: boneIndex,
	}
	log := logger.WithField("joint", channel.JointName)

	var err error
	if t.positions, err = copyVectorKeys(channel.PositionKeys, "position", t, log); err != nil {
		return nil, err
	}
	if t.scales, err = copyVectorKeys(channel.ScaleKeys, "scale", t, log); err != nil {
		return nil, err
	}

	if len(channel.RotationKeys) == 0 {
		return nil, errors.Wrapf(ErrImport, "joint %q: rotation channel has no keys", channel.JointName)
	}
	t.rotations = make([]common.QuaternionKeyframe, len(channel.RotationKeys))
	for i, k := range channel.RotationKeys {
		if !common.IsFinite(k.Time) || !common.IsFiniteQuat(k.Value) {
			return nil, errors.Wrapf(ErrImport, "joint %q: rotation key %d is not finite", channel.JointName, i)
		}
		if i > 0 {
			if err := t.checkOrder(channel.RotationKeys[i-1].Time, k.Time, "rotation", i, log); err != nil {
				return nil, err
			}
		}
		t.rotations[i] = common.QuaternionKeyframe{Time: k.Time, Value: k.Value.Normalize()}
	}

	return t, nil
}

func copyVectorKeys(keys []common.VectorKeyframe, channel string, t *KeyframeTrack, log logrus.FieldLogger) ([]common.VectorKeyframe, error) {
	if len(keys) == 0 {
		return nil, errors.Wrapf(ErrImport, "joint %q: %s channel has no keys", t.jointName, channel)
	}
	out := make([]common.VectorKeyframe, len(keys))
	for i, k := range keys {
		if !common.IsFinite(k.Time) || !common.IsFiniteVec3(k.Value) {
			return nil, errors.Wrapf(ErrImport, "joint %q: %s key %d is not finite", t.jointName, channel, i)
		}
		if i > 0 {
			if err := t.checkOrder(keys[i-1].Time, k.Time, channel, i, log); err != nil {
				return nil, err
			}
		}
		out[i] = k
	}
	return out, nil
}

func (t *KeyframeTrack) checkOrder(prev, cur float32, channel string, i int, log logrus.FieldLogger) error {
	switch {
	case cur < prev:
		return errors.Wrapf(ErrImport, "joint %q: %s key %d at %v precedes key %d at %v", t.jointName, channel, i, cur, i-1, prev)
	case cur == prev:
		t.degenerateKeys++
		log.WithFields(logrus.Fields{
			"channel": channel,
			"key":     i,
			"time":    cur,
		}).WithError(ErrDegenerateKey).Warn("adjacent keys share a timestamp")
	}
	return nil
}

// JointName returns the name of the joint this track animates.
func (t *KeyframeTrack) JointName() string {
	return t.jointName
}

// BoneIndex returns the joint's bone index, or -1 if it has none.
func (t *KeyframeTrack) BoneIndex() int {
	return t.boneIndex
}

// DegenerateKeys returns how many adjacent key pairs share a timestamp.
func (t *KeyframeTrack) DegenerateKeys() int {
	return t.degenerateKeys
}

// KeyCounts returns the number of position, rotation, and scale keys.
func (t *KeyframeTrack) KeyCounts() (positions, rotations, scales int) {
	return len(t.positions), len(t.rotations), len(t.scales)
}

// segment locates the keys bracketing time and the blend factor between them.
// n is the key count and at returns the time of key i. The returned f is clamped to [0, 1].
// Times before the first key resolve to key 0 and times at or past the last key to the last key.
func segment(n int, at func(int) float32, time float32) (int, int, float32) {
	if n == 1 {
		return 0, 0, 0
	}
	next := sort.Search(n, func(i int) bool { return at(i) > time })
	if next == 0 {
		return 0, 0, 0
	}
	if next == n {
		return n - 1, n - 1, 0
	}
	i := next - 1
	span := at(next) - at(i)
	if span <= 0 {
		return i, next, 0
	}
	return i, next, mgl32.Clamp((time-at(i))/span, 0, 1)
}

func sampleVector(keys []common.VectorKeyframe, time float32) mgl32.Vec3 {
	i, j, f := segment(len(keys), func(k int) float32 { return keys[k].Time }, time)
	switch {
	case f <= 0:
		return keys[i].Value
	case f >= 1:
		return keys[j].Value
	}
	return common.LerpVec3(keys[i].Value, keys[j].Value, f)
}

// Position samples the position channel at time (in ticks).
func (t *KeyframeTrack) Position(time float32) mgl32.Vec3 {
	return sampleVector(t.positions, time)
}

// Scale samples the scale channel at time (in ticks).
func (t *KeyframeTrack) Scale(time float32) mgl32.Vec3 {
	return sampleVector(t.scales, time)
}

// Rotation samples the rotation channel at time (in ticks). The result is unit length.
func (t *KeyframeTrack) Rotation(time float32) mgl32.Quat {
	keys := t.rotations
	i, j, f := segment(len(keys), func(k int) float32 { return keys[k].Time }, time)
	switch {
	case f <= 0:
		return keys[i].Value
	case f >= 1:
		return keys[j].Value
	}
	return mgl32.QuatSlerp(keys[i].Value, keys[j].Value, f).Normalize()
}

// LocalTransform interpolates the joint's local transform at time (in ticks), composed
// as Translate * Rotate * Scale. The caller wraps time into the clip's range.
//
// Parameters:
//   - time: the play time in ticks
//
// Returns:
//   - mgl32.Mat4: the interpolated local transform
func (t *KeyframeTrack) LocalTransform(time float32) mgl32.Mat4 {
	return common.ComposeTRS(t.Position(time), t.Rotation(time), t.Scale(time))
}

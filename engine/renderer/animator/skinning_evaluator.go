package animator

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// evaluate walks the current clip's hierarchy depth-first from the root and writes
// global * inverseBindOffset into the palette slot of every node that is a bone.
func (a *animator) evaluate() {
	a.globals = a.clip.Hierarchy().Walk(a.globals, a.localTransform, a.writeBone)
}

// localTransform samples node i's track at the current play time, or returns its
// bind-local transform when the clip does not animate it.
func (a *animator) localTransform(i int) mgl32.Mat4 {
	if track := a.clip.NodeTrack(i); track != nil {
		return track.LocalTransform(a.playTime)
	}
	return a.clip.Hierarchy().Node(i).BindLocal
}

func (a *animator) writeBone(i int, global mgl32.Mat4) {
	slot := a.slots[i]
	if slot.index < 0 {
		return
	}
	if slot.index >= len(a.final) {
		panic(fmt.Sprintf("animator: bone %q has index %d, palette holds %d", a.clip.Hierarchy().Node(i).Name, slot.index, len(a.final)))
	}
	a.final[slot.index] = global.Mul4(slot.offset)
}

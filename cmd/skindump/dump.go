package main

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

type boneDump struct {
	Index  int
	Name   string
	Offset [16]float32
}

type trackDump struct {
	Joint      string
	BoneIndex  int
	Positions  int
	Rotations  int
	Scales     int
	Degenerate int
}

type clipDump struct {
	Name           string
	Duration       float32
	TicksPerSecond float32
	Nodes          int
	Tracks         []trackDump
	InverseRoot    [16]float32
}

type meshDump struct {
	Name               string
	Vertices           int
	DroppedInfluences  int
	FirstBoneIDs       [4]int32
	FirstWeights       [4]float32
	UnboundVertexCount int
}

type modelDump struct {
	Name   string
	Bones  []boneDump
	Meshes []meshDump
	Clips  []clipDump
}

// dumpModel renders the imported structure of m without the per-key track data.
func dumpModel(m model.Model) string {
	d := modelDump{Name: m.Name()}

	table := m.BoneWeights()
	for i, name := range table.Names() {
		d.Bones = append(d.Bones, boneDump{Index: i, Name: name, Offset: table.Offset(name)})
	}

	for _, mesh := range m.Meshes() {
		md := meshDump{
			Name:              mesh.Name,
			Vertices:          len(mesh.Bindings),
			DroppedInfluences: mesh.DroppedInfluences,
		}
		if len(mesh.Bindings) > 0 {
			md.FirstBoneIDs = mesh.Bindings[0].BoneIDs
			md.FirstWeights = mesh.Bindings[0].Weights
		}
		for _, b := range mesh.Bindings {
			if b.BoneIDs[0] < 0 {
				md.UnboundVertexCount++
			}
		}
		d.Meshes = append(d.Meshes, md)
	}

	for _, clip := range m.Animations() {
		cd := clipDump{
			Name:           clip.Name(),
			Duration:       clip.Duration(),
			TicksPerSecond: clip.TicksPerSecond(),
			Nodes:          clip.Hierarchy().Len(),
			InverseRoot:    clip.GlobalInverseRoot(),
		}
		for _, joint := range clip.JointNames() {
			track := clip.Track(joint)
			td := trackDump{Joint: joint, BoneIndex: track.BoneIndex(), Degenerate: track.DegenerateKeys()}
			td.Positions, td.Rotations, td.Scales = track.KeyCounts()
			cd.Tracks = append(cd.Tracks, td)
		}
		d.Clips = append(d.Clips, cd)
	}

	return spewConfig.Sdump(d)
}

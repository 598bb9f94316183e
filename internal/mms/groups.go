package mms

import "github.com/go-gl/mathgl/mgl64"

// Kind selects the Target variant that realizes an inflection group.
type Kind int

const (
	// KindLocalRotation adds a fixed delta rotation directly to the bone's
	// own local rotation; no controller chain is involved.
	KindLocalRotation Kind = iota
	// KindRelativeLocRot adds a fixed delta translation and rotation to the
	// controller pose, expressed relative to the chain root.
	KindRelativeLocRot
	// KindHeadRot adds a fixed delta rotation only, relative to the root.
	KindHeadRot
	// KindTrajectory applies one rigid transform to the whole controller
	// trajectory, anchored at the trajectory's first-frame position.
	KindTrajectory
)

func (k Kind) String() string {
	switch k {
	case KindLocalRotation:
		return "LocalRotation"
	case KindRelativeLocRot:
		return "RelativeLocRot"
	case KindHeadRot:
		return "HeadRot"
	case KindTrajectory:
		return "Trajectory"
	}
	return "Unknown"
}

// Group describes one inflection group: its parameter columns in the MMS
// table, the bone it controls, the reference bone its deltas are expressed
// against, and the Target variant implementing it. Groups are identified by
// name, not by variant.
type Group struct {
	Name string
	Kind Kind

	// Bone is the controlled bone; Root is the rotation/translation
	// reference bone. Root is empty for controller-less variants.
	Bone string
	Root string

	// Column prefixes; x/y/z suffixes are appended. Empty prefix means the
	// group has no parameters of that kind.
	TranslatePrefix string
	RotatePrefix    string
	ScalePrefix     string
}

// Columns returns the full ordered column set of the group.
func (g *Group) Columns() []string {
	var cols []string
	for _, prefix := range []string{g.TranslatePrefix, g.RotatePrefix, g.ScalePrefix} {
		if prefix == "" {
			continue
		}
		for _, axis := range []string{"x", "y", "z"} {
			cols = append(cols, prefix+axis)
		}
	}
	return cols
}

// Params is a fully populated parameter set for one group on one row.
// The all-or-none column rule guarantees every field of the set is filled;
// unused fields hold their identity values.
type Params struct {
	Group     *Group
	Translate mgl64.Vec3 // identity 0,0,0
	Rotate    mgl64.Vec3 // ZXY Euler radians, identity 0,0,0
	Scale     mgl64.Vec3 // identity 1,1,1
}

// IsIdentity reports whether applying the parameters would leave the motion
// unchanged. Identity-valued groups must be skipped by the consumer to avoid
// the precision loss of a controller round-trip.
func (p *Params) IsIdentity() bool {
	zero := mgl64.Vec3{}
	one := mgl64.Vec3{1, 1, 1}
	return p.Translate.ApproxEqual(zero) && p.Rotate.ApproxEqual(zero) && p.Scale.ApproxEqual(one)
}

// Skeleton bone names the groups bind to. The motion dictionary uses the
// 3ds-Max-style "Bone_" names throughout.
const (
	BoneDomHand      = "Bone_R_Hand"
	BoneNdomHand     = "Bone_L_Hand"
	BoneDomClavicle  = "Bone_R_Clavicle"
	BoneNdomClavicle = "Bone_L_Clavicle"
	BoneHead         = "Bone_Head"
	BoneSpine        = "Bone_Spine"
	BoneSpineUpper   = "Bone_Spine2"
	BonePelvis       = "Bone_Pelvis"
)

// Groups is the closed registry of inflection groups, in application order:
// torso first, then head, shoulders, and hands, matching the order the
// controller configuration lists them.
var Groups = []*Group{
	{
		Name: "torso", Kind: KindRelativeLocRot,
		Bone: BoneSpine, Root: BonePelvis,
		TranslatePrefix: "torsoreloc", RotatePrefix: "torsoreloca",
	},
	{
		Name: "head", Kind: KindHeadRot,
		Bone: BoneHead, Root: BoneSpineUpper,
		RotatePrefix: "headrot",
	},
	{
		Name: "domshoulder", Kind: KindRelativeLocRot,
		Bone: BoneDomClavicle, Root: BoneSpineUpper,
		TranslatePrefix: "domshoulderreloc",
	},
	{
		Name: "ndomshoulder", Kind: KindRelativeLocRot,
		Bone: BoneNdomClavicle, Root: BoneSpineUpper,
		TranslatePrefix: "ndomshoulderreloc",
	},
	{
		Name: "domhandreloc", Kind: KindTrajectory,
		Bone: BoneDomHand, Root: BoneSpineUpper,
		TranslatePrefix: "domhandreloc", RotatePrefix: "domhandreloca", ScalePrefix: "domhandrelocs",
	},
	{
		Name: "ndomhandreloc", Kind: KindTrajectory,
		Bone: BoneNdomHand, Root: BoneSpineUpper,
		TranslatePrefix: "ndomhandreloc", RotatePrefix: "ndomhandreloca", ScalePrefix: "ndomhandrelocs",
	},
	{
		Name: "domhandrot", Kind: KindLocalRotation,
		Bone: BoneDomHand,
		RotatePrefix: "domhandrot",
	},
	{
		Name: "ndomhandrot", Kind: KindLocalRotation,
		Bone: BoneNdomHand,
		RotatePrefix: "ndomhandrot",
	},
}

// GroupByName looks a group up in the registry.
func GroupByName(name string) *Group {
	for _, g := range Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

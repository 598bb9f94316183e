// Package inflect implements the geometric edit strategies applied to a
// gloss's recorded motion. Each Target consumes a per-frame pose and a fixed
// parameter set and returns the edited pose; targets never touch the
// skeleton themselves, which keeps per-frame application parallelizable.
package inflect

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
)

// Target is one inflection strategy bound to one group's parameters.
//
// Anchor is called exactly once with the untouched first-frame pose before
// any Inflect call; only the Trajectory variant uses it. Inflect must be a
// pure function of its input pose.
type Target interface {
	Group() *mms.Group
	NeedsController() bool
	Anchor(first anim.Pose)
	Inflect(pose anim.Pose) anim.Pose
}

// New builds the Target variant declared by the group carrying the
// parameters. Params are fully populated by construction (the parser
// enforces the all-or-none column rule); New only dispatches.
func New(params *mms.Params) (Target, error) {
	switch params.Group.Kind {
	case mms.KindLocalRotation:
		return &localRotation{group: params.Group, delta: anim.QuatFromEulerZXY(params.Rotate)}, nil
	case mms.KindRelativeLocRot:
		return &relativeLocRot{
			group:  params.Group,
			offset: params.Translate,
			delta:  anim.QuatFromEulerZXY(params.Rotate),
		}, nil
	case mms.KindHeadRot:
		return &headRot{group: params.Group, delta: anim.QuatFromEulerZXY(params.Rotate)}, nil
	case mms.KindTrajectory:
		return &trajectory{
			group:     params.Group,
			translate: params.Translate,
			rotate:    anim.QuatFromEulerZXY(params.Rotate),
			scale:     params.Scale,
		}, nil
	}
	return nil, fmt.Errorf("inflect: group %q has unknown target kind %v", params.Group.Name, params.Group.Kind)
}

// localRotation adds a fixed delta rotation directly to the bone's own local
// rotation, every frame. No controller chain is involved, which makes it the
// cheapest variant.
type localRotation struct {
	group *mms.Group
	delta mgl64.Quat
}

func (t *localRotation) Group() *mms.Group     { return t.group }
func (t *localRotation) NeedsController() bool { return false }
func (t *localRotation) Anchor(anim.Pose)      {}

func (t *localRotation) Inflect(pose anim.Pose) anim.Pose {
	pose.Rot = pose.Rot.Mul(t.delta)
	return pose
}

// relativeLocRot adds a constant delta translation and rotation to the
// controller pose, expressed relative to the chain root. The offset is the
// same at every frame.
type relativeLocRot struct {
	group  *mms.Group
	offset mgl64.Vec3
	delta  mgl64.Quat
}

func (t *relativeLocRot) Group() *mms.Group     { return t.group }
func (t *relativeLocRot) NeedsController() bool { return true }
func (t *relativeLocRot) Anchor(anim.Pose)      {}

func (t *relativeLocRot) Inflect(pose anim.Pose) anim.Pose {
	pose.Loc = pose.Loc.Add(t.offset)
	pose.Rot = pose.Rot.Mul(t.delta)
	return pose
}

// headRot adds a fixed delta rotation only, relative to the root.
type headRot struct {
	group *mms.Group
	delta mgl64.Quat
}

func (t *headRot) Group() *mms.Group     { return t.group }
func (t *headRot) NeedsController() bool { return true }
func (t *headRot) Anchor(anim.Pose)      {}

func (t *headRot) Inflect(pose anim.Pose) anim.Pose {
	pose.Rot = pose.Rot.Mul(t.delta)
	return pose
}

// trajectory applies one rigid transform (translate, rotate, non-uniform
// scale) to the controller's whole positional trajectory, anchored at the
// trajectory's own first-frame position: every position Pi becomes
// P0 + R·S·(Pi − P0) + T. The transform is computed once from the untouched
// first frame, never per frame.
type trajectory struct {
	group     *mms.Group
	translate mgl64.Vec3
	rotate    mgl64.Quat
	scale     mgl64.Vec3

	anchor mgl64.Vec3
}

func (t *trajectory) Group() *mms.Group     { return t.group }
func (t *trajectory) NeedsController() bool { return true }

func (t *trajectory) Anchor(first anim.Pose) {
	t.anchor = first.Loc
}

func (t *trajectory) Inflect(pose anim.Pose) anim.Pose {
	rel := pose.Loc.Sub(t.anchor)
	scaled := mgl64.Vec3{rel.X() * t.scale.X(), rel.Y() * t.scale.Y(), rel.Z() * t.scale.Z()}
	pose.Loc = t.anchor.Add(t.rotate.Rotate(scaled)).Add(t.translate)
	return pose
}

package rig

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
)

// Solver writes an edited controller curve back into bone-space clip curves.
// The pipeline never solves inverse kinematics itself; production hosts plug
// their own solver in here.
type Solver interface {
	// Solve replaces the driven bone's track in clip so that, frame by
	// frame, its root-relative transform matches the controller curve.
	Solve(skel *Skeleton, chain ChainSpec, curve []anim.Pose, clip *anim.Clip) error
}

// DirectSolver is the built-in closed-form solver for the chain's driven
// bone: it inverts the parent chain at every frame and assigns the exact
// local pose reproducing the controller sample. Intermediate joints are left
// untouched, which matches the bounded-drift contract of a bake round-trip.
type DirectSolver struct{}

func (DirectSolver) Solve(skel *Skeleton, chain ChainSpec, curve []anim.Pose, clip *anim.Clip) error {
	bone := skel.Bone(chain.Bone)
	if bone == nil {
		return &BindingError{Bone: chain.Bone}
	}
	track := clip.Tracks[chain.Bone]
	if len(track) != len(curve) {
		track = make([]anim.Pose, len(curve))
	}

	rest := skel.restLocal(bone)
	for i, sample := range curve {
		frame := clip.FrameStart + i

		root, err := skel.WorldMatrix(clip, chain.Root, frame)
		if err != nil {
			return err
		}
		parentWorld := mgl64.Ident4()
		if bone.Parent != "" {
			parentWorld, err = skel.WorldMatrix(clip, bone.Parent, frame)
			if err != nil {
				return err
			}
		}

		// desired world = root * controller sample; local solves
		// parentWorld * rest * local = desired.
		desired := root.Mul4(poseMatrix(sample))
		local := parentWorld.Mul4(rest).Inv().Mul4(desired)
		track[i] = matrixPose(local)
	}
	clip.Tracks[chain.Bone] = track
	return nil
}

func poseMatrix(p anim.Pose) mgl64.Mat4 {
	return mgl64.Translate3D(p.Loc.X(), p.Loc.Y(), p.Loc.Z()).Mul4(p.Rot.Mat4())
}

func matrixPose(m mgl64.Mat4) anim.Pose {
	return anim.Pose{
		Loc: m.Col(3).Vec3(),
		Rot: mgl64.Mat4ToQuat(m).Normalize(),
	}
}

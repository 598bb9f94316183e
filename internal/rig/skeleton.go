// Package rig provides the skeleton binding and the transient controller
// chains that re-express bone motion in a root-relative space where
// geometric edits are meaningful.
package rig

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
)

// BindingError reports a chain referencing a bone absent from the active
// skeleton. It is fatal for the row being processed.
type BindingError struct {
	Bone string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("rig binding: bone %q not present on the active skeleton", e.Bone)
}

// Bone is one rest-pose joint: head and tail in armature space.
type Bone struct {
	Name   string
	Parent string
	Head   mgl64.Vec3
	Tail   mgl64.Vec3
}

// Skeleton is the bound rest skeleton. Bone curves live in clips; the
// skeleton only carries the hierarchy and rest offsets, plus the bake lock
// that serializes controller round-trips touching the same skeleton.
type Skeleton struct {
	bones map[string]*Bone
	order []string // parents before children

	// bakeMu serializes bake-in/bake-out critical sections across chains.
	bakeMu sync.Mutex
}

// NewSkeleton builds a skeleton from a parents-first bone list.
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{bones: make(map[string]*Bone, len(bones))}
	for i := range bones {
		b := bones[i]
		if b.Parent != "" {
			if _, ok := s.bones[b.Parent]; !ok {
				return nil, fmt.Errorf("skeleton: bone %q listed before its parent %q", b.Name, b.Parent)
			}
		}
		if _, dup := s.bones[b.Name]; dup {
			return nil, fmt.Errorf("skeleton: duplicate bone %q", b.Name)
		}
		s.bones[b.Name] = &b
		s.order = append(s.order, b.Name)
	}
	return s, nil
}

// BoneExists reports whether the named bone is bound.
func (s *Skeleton) BoneExists(name string) bool {
	_, ok := s.bones[name]
	return ok
}

// Bone returns the named rest bone, or nil.
func (s *Skeleton) Bone(name string) *Bone {
	return s.bones[name]
}

// Bones returns the bone names, parents first.
func (s *Skeleton) Bones() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// restLocal is the bone's rest transform relative to its parent: a pure
// translation from the parent head to the bone head.
func (s *Skeleton) restLocal(b *Bone) mgl64.Mat4 {
	offset := b.Head
	if b.Parent != "" {
		offset = b.Head.Sub(s.bones[b.Parent].Head)
	}
	return mgl64.Translate3D(offset.X(), offset.Y(), offset.Z())
}

// localMatrix combines a bone's rest offset with its animated local pose.
func localMatrix(rest mgl64.Mat4, pose anim.Pose) mgl64.Mat4 {
	t := mgl64.Translate3D(pose.Loc.X(), pose.Loc.Y(), pose.Loc.Z())
	return rest.Mul4(t).Mul4(pose.Rot.Mat4())
}

// WorldMatrix evaluates the armature-space transform of a bone at an integer
// frame of the given clip by composing local poses down the parent chain
// (forward kinematics). Bones missing from the clip contribute their rest
// transform only.
func (s *Skeleton) WorldMatrix(clip *anim.Clip, bone string, frame int) (mgl64.Mat4, error) {
	b, ok := s.bones[bone]
	if !ok {
		return mgl64.Mat4{}, &BindingError{Bone: bone}
	}
	local := localMatrix(s.restLocal(b), clipPose(clip, bone, frame))
	if b.Parent == "" {
		return local, nil
	}
	parent, err := s.WorldMatrix(clip, b.Parent, frame)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return parent.Mul4(local), nil
}

func clipPose(clip *anim.Clip, bone string, frame int) anim.Pose {
	if clip == nil {
		return anim.IdentityPose()
	}
	return clip.Sample(bone, float64(frame))
}

// DefaultBones is the humanoid rest skeleton of the motion dictionary,
// fingers excluded. Offsets are in meters.
var DefaultBones = []Bone{
	{Name: "Bone_Root", Head: mgl64.Vec3{0, 0, 0}, Tail: mgl64.Vec3{0, 0.10, 0}},
	{Name: "Bone", Parent: "Bone_Root", Head: mgl64.Vec3{0, 0, 0.95}, Tail: mgl64.Vec3{0, 0.10, 0.95}},
	{Name: "Bone_Pelvis", Parent: "Bone", Head: mgl64.Vec3{0, 0, 1.00}, Tail: mgl64.Vec3{0, 0, 1.10}},
	{Name: "Bone_Spine", Parent: "Bone_Pelvis", Head: mgl64.Vec3{0, 0, 1.10}, Tail: mgl64.Vec3{0, 0, 1.22}},
	{Name: "Bone_Spine1", Parent: "Bone_Spine", Head: mgl64.Vec3{0, 0, 1.22}, Tail: mgl64.Vec3{0, 0, 1.34}},
	{Name: "Bone_Spine2", Parent: "Bone_Spine1", Head: mgl64.Vec3{0, 0, 1.34}, Tail: mgl64.Vec3{0, 0, 1.46}},
	{Name: "Bone_Neck", Parent: "Bone_Spine2", Head: mgl64.Vec3{0, 0, 1.46}, Tail: mgl64.Vec3{0, 0, 1.56}},
	{Name: "Bone_Head", Parent: "Bone_Neck", Head: mgl64.Vec3{0, 0, 1.56}, Tail: mgl64.Vec3{0, 0, 1.74}},
	{Name: "Bone_L_Clavicle", Parent: "Bone_Spine2", Head: mgl64.Vec3{0.03, 0, 1.44}, Tail: mgl64.Vec3{0.16, 0, 1.44}},
	{Name: "Bone_L_UpperArm", Parent: "Bone_L_Clavicle", Head: mgl64.Vec3{0.18, 0, 1.44}, Tail: mgl64.Vec3{0.44, 0, 1.44}},
	{Name: "Bone_L_Forearm", Parent: "Bone_L_UpperArm", Head: mgl64.Vec3{0.44, 0, 1.44}, Tail: mgl64.Vec3{0.68, 0, 1.44}},
	{Name: "Bone_L_Hand", Parent: "Bone_L_Forearm", Head: mgl64.Vec3{0.68, 0, 1.44}, Tail: mgl64.Vec3{0.76, 0, 1.44}},
	{Name: "Bone_R_Clavicle", Parent: "Bone_Spine2", Head: mgl64.Vec3{-0.03, 0, 1.44}, Tail: mgl64.Vec3{-0.16, 0, 1.44}},
	{Name: "Bone_R_UpperArm", Parent: "Bone_R_Clavicle", Head: mgl64.Vec3{-0.18, 0, 1.44}, Tail: mgl64.Vec3{-0.44, 0, 1.44}},
	{Name: "Bone_R_Forearm", Parent: "Bone_R_UpperArm", Head: mgl64.Vec3{-0.44, 0, 1.44}, Tail: mgl64.Vec3{-0.68, 0, 1.44}},
	{Name: "Bone_R_Hand", Parent: "Bone_R_Forearm", Head: mgl64.Vec3{-0.68, 0, 1.44}, Tail: mgl64.Vec3{-0.76, 0, 1.44}},
}

// DefaultSkeleton builds the dictionary humanoid.
func DefaultSkeleton() *Skeleton {
	s, err := NewSkeleton(DefaultBones)
	if err != nil {
		panic(err) // the built-in table is known-good
	}
	return s
}

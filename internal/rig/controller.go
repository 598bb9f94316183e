package rig

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
)

// ErrReleased is returned when a controller is used after Release.
var ErrReleased = errors.New("rig: controller already released")

// ChainSpec names one controller chain: the driven bone and the root bone
// its controller-space poses are expressed against.
type ChainSpec struct {
	Name string
	Bone string
	Root string
}

// Controller is the transient proxy for one bone chain of one row. Its
// lifetime is strictly scoped: NewController → BakeIn → edit → BakeOut →
// Release, with Release guaranteed on every exit path so no transient rig
// state leaks across rows.
type Controller struct {
	ID    string
	chain ChainSpec

	skel   *Skeleton
	solver Solver

	clip     *anim.Clip
	curve    []anim.Pose
	released bool
}

// NewController allocates the proxy and binds it to the skeleton, failing
// with a BindingError when either chain bone is missing.
func NewController(skel *Skeleton, solver Solver, chain ChainSpec) (*Controller, error) {
	for _, bone := range []string{chain.Bone, chain.Root} {
		if !skel.BoneExists(bone) {
			return nil, &BindingError{Bone: bone}
		}
	}
	c := &Controller{
		ID:     fmt.Sprintf("IK_CTRL_FOR_%s_%s", chain.Bone, uuid.NewString()[:8]),
		chain:  chain,
		skel:   skel,
		solver: solver,
	}
	logrus.WithFields(logrus.Fields{"controller": c.ID, "root": chain.Root}).Debug("controller chain bound")
	return c, nil
}

// Chain returns the bound chain spec.
func (c *Controller) Chain() ChainSpec {
	return c.chain
}

// BakeIn reads the clip's per-frame pose for the driven bone and stores the
// equivalent controller-space pose (the bone's transform relative to the
// chain root). It is a pure function of the clip snapshot, so re-baking the
// same curves yields the same proxy curve.
func (c *Controller) BakeIn(clip *anim.Clip) error {
	if c.released {
		return ErrReleased
	}
	c.skel.bakeMu.Lock()
	defer c.skel.bakeMu.Unlock()

	frames := clip.FrameCount()
	curve := make([]anim.Pose, frames)
	for i := 0; i < frames; i++ {
		frame := clip.FrameStart + i
		root, err := c.skel.WorldMatrix(clip, c.chain.Root, frame)
		if err != nil {
			return err
		}
		bone, err := c.skel.WorldMatrix(clip, c.chain.Bone, frame)
		if err != nil {
			return err
		}
		curve[i] = matrixPose(root.Inv().Mul4(bone))
	}
	c.clip = clip
	c.curve = curve
	return nil
}

// Curve exposes the baked controller-space poses as the edit surface.
// Entries may be replaced in place; per-frame edits carry no cross-frame
// dependency and are safe to compute in parallel.
func (c *Controller) Curve() []anim.Pose {
	return c.curve
}

// BakeOut hands the (possibly edited) controller curve to the solver, which
// replaces the driven bone's clip track. The round-trip is lossy in general;
// identity edits must stay within a small epsilon of the source, which is
// why identity-valued groups skip the controller entirely.
func (c *Controller) BakeOut() error {
	if c.released {
		return ErrReleased
	}
	if c.clip == nil {
		return fmt.Errorf("rig: controller %s: bake-out before bake-in", c.ID)
	}
	c.skel.bakeMu.Lock()
	defer c.skel.bakeMu.Unlock()
	return c.solver.Solve(c.skel, c.chain, c.curve, c.clip)
}

// Release drops the proxy. It is idempotent and must run even when an edit
// step failed.
func (c *Controller) Release() {
	if c.released {
		return
	}
	c.released = true
	c.clip = nil
	c.curve = nil
	logrus.WithField("controller", c.ID).Debug("controller chain released")
}

package inflect

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
)

func params(group string, translate, rotate, scale mgl64.Vec3) *mms.Params {
	g := mms.GroupByName(group)
	if g == nil {
		panic("unknown group " + group)
	}
	return &mms.Params{Group: g, Translate: translate, Rotate: rotate, Scale: scale}
}

func TestNewDispatchesByKind(t *testing.T) {
	cases := []struct {
		group      string
		controller bool
	}{
		{"domhandrot", false},
		{"ndomhandrot", false},
		{"head", true},
		{"torso", true},
		{"domhandreloc", true},
	}
	for _, tc := range cases {
		target, err := New(params(tc.group, mgl64.Vec3{}, mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{1, 1, 1}))
		require.NoError(t, err, tc.group)
		assert.Equal(t, tc.group, target.Group().Name)
		assert.Equal(t, tc.controller, target.NeedsController(), tc.group)
	}
}

func TestLocalRotationComposesDelta(t *testing.T) {
	delta := mgl64.Vec3{0, 0, math.Pi / 2}
	target, err := New(params("domhandrot", mgl64.Vec3{}, delta, mgl64.Vec3{1, 1, 1}))
	require.NoError(t, err)

	in := anim.Pose{Loc: mgl64.Vec3{1, 2, 3}, Rot: mgl64.QuatIdent()}
	out := target.Inflect(in)

	assert.Equal(t, in.Loc, out.Loc)
	v := out.Rot.Rotate(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0.0, v.X(), 1e-12)
	assert.InDelta(t, 1.0, v.Y(), 1e-12)
}

func TestRelativeLocRotAddsConstantOffset(t *testing.T) {
	offset := mgl64.Vec3{0.1, 0, -0.05}
	target, err := New(params("torso", offset, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	require.NoError(t, err)

	for _, loc := range []mgl64.Vec3{{0, 0, 0}, {1, 1, 1}, {-3, 0.5, 2}} {
		out := target.Inflect(anim.Pose{Loc: loc, Rot: mgl64.QuatIdent()})
		assert.True(t, out.Loc.ApproxEqualThreshold(loc.Add(offset), 1e-12))
	}
}

func TestHeadRotLeavesLocationAlone(t *testing.T) {
	target, err := New(params("head", mgl64.Vec3{}, mgl64.Vec3{0.2, 0, 0}, mgl64.Vec3{1, 1, 1}))
	require.NoError(t, err)

	in := anim.Pose{Loc: mgl64.Vec3{0, 0, 1.6}, Rot: mgl64.QuatIdent()}
	out := target.Inflect(in)
	assert.Equal(t, in.Loc, out.Loc)
	assert.False(t, out.Rot.ApproxEqualThreshold(in.Rot, 1e-9))
}

func TestTrajectoryTransform(t *testing.T) {
	// The signing-space displacement scenario: shrink to 40%, rotate about
	// Z, lift 15cm.
	translate := mgl64.Vec3{0, 0.15, 0}
	rotate := mgl64.Vec3{0, 0, -0.55}
	scale := mgl64.Vec3{0.4, 0.4, 0.4}
	target, err := New(params("domhandreloc", translate, rotate, scale))
	require.NoError(t, err)

	anchor := mgl64.Vec3{0.3, 0.1, 1.2}
	target.Anchor(anim.Pose{Loc: anchor, Rot: mgl64.QuatIdent()})

	// The anchor itself only picks up the translation.
	got := target.Inflect(anim.Pose{Loc: anchor, Rot: mgl64.QuatIdent()})
	assert.True(t, got.Loc.ApproxEqualThreshold(anchor.Add(translate), 1e-12))

	// Any other point follows P0 + R·S·(Pi − P0) + T.
	pi := mgl64.Vec3{0.5, 0.3, 1.0}
	rel := pi.Sub(anchor)
	scaled := mgl64.Vec3{rel.X() * 0.4, rel.Y() * 0.4, rel.Z() * 0.4}
	want := anchor.Add(anim.QuatFromEulerZXY(rotate).Rotate(scaled)).Add(translate)

	got = target.Inflect(anim.Pose{Loc: pi, Rot: mgl64.QuatIdent()})
	assert.True(t, got.Loc.ApproxEqualThreshold(want, 1e-12), "got %v want %v", got.Loc, want)
}

func TestTrajectoryAnchorIsStable(t *testing.T) {
	target, err := New(params("domhandreloc", mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{2, 2, 2}))
	require.NoError(t, err)

	anchor := mgl64.Vec3{1, 0, 0}
	target.Anchor(anim.Pose{Loc: anchor, Rot: mgl64.QuatIdent()})

	// Applying the same frame twice scales from the anchor both times; the
	// transform must not drift with the edited output.
	p := mgl64.Vec3{1.5, 0, 0}
	first := target.Inflect(anim.Pose{Loc: p, Rot: mgl64.QuatIdent()})
	second := target.Inflect(anim.Pose{Loc: p, Rot: mgl64.QuatIdent()})
	assert.Equal(t, first.Loc, second.Loc)
	assert.InDelta(t, 2.0, first.Loc.X(), 1e-12)
}

func TestTrajectoryKeepsRotation(t *testing.T) {
	target, err := New(params("ndomhandreloc", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	require.NoError(t, err)
	target.Anchor(anim.IdentityPose())

	rot := anim.QuatFromEulerZXY(mgl64.Vec3{0.3, -0.2, 0.9})
	out := target.Inflect(anim.Pose{Loc: mgl64.Vec3{0, 0, 0}, Rot: rot})
	assert.True(t, out.Rot.ApproxEqualThreshold(rot, 1e-12))
}

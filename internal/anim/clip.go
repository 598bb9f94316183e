// Package anim holds the motion primitives shared by the pipeline: per-bone
// pose curves sampled at a fixed rate, and the duration resampler.
package anim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FPS is the sampling rate of the motion dictionary and of the composed
// timeline.
const FPS = 60.0

// Pose is one bone sample: location plus orientation. Rotations travel as
// quaternions end to end; Euler angles only appear at the MMS parameter
// boundary and in the BVH exporter.
type Pose struct {
	Loc mgl64.Vec3
	Rot mgl64.Quat
}

// IdentityPose returns the rest sample.
func IdentityPose() Pose {
	return Pose{Rot: mgl64.QuatIdent()}
}

// Lerp interpolates between two poses; rotation uses normalized lerp, which
// is exact at t=0 and t=1.
func (p Pose) Lerp(q Pose, t float64) Pose {
	return Pose{
		Loc: p.Loc.Add(q.Loc.Sub(p.Loc).Mul(t)),
		Rot: mgl64.QuatNlerp(p.Rot, q.Rot, t),
	}
}

// ApproxEqual compares two poses within epsilon.
func (p Pose) ApproxEqual(q Pose, epsilon float64) bool {
	if !p.Loc.ApproxEqualThreshold(q.Loc, epsilon) {
		return false
	}
	// q and -q encode the same orientation.
	d := math.Abs(p.Rot.Dot(q.Rot))
	return d >= 1-epsilon
}

// Clip is one loaded motion range for a gloss: an ordered pose sequence per
// bone, indexed by frame. A clip is owned by the row being processed and is
// discarded after that row's baking completes.
type Clip struct {
	FrameStart int
	FrameEnd   int
	Tracks     map[string][]Pose
}

// NewClip allocates an empty clip over [start, end].
func NewClip(start, end int) *Clip {
	return &Clip{FrameStart: start, FrameEnd: end, Tracks: make(map[string][]Pose)}
}

// FrameCount is the number of samples per track. The last frame marks an
// instant, not a duration, hence the +1.
func (c *Clip) FrameCount() int {
	return c.FrameEnd - c.FrameStart + 1
}

// Duration is the nominal clip duration in seconds.
func (c *Clip) Duration() float64 {
	return float64(c.FrameEnd-c.FrameStart) / FPS
}

// Bones returns the bone names carried by the clip.
func (c *Clip) Bones() []string {
	names := make([]string, 0, len(c.Tracks))
	for name := range c.Tracks {
		names = append(names, name)
	}
	return names
}

// Track returns the pose sequence of a bone, or nil.
func (c *Clip) Track(bone string) []Pose {
	return c.Tracks[bone]
}

// Sample evaluates a bone track at a fractional frame with linear
// interpolation, clamped to the clip range. Integer frames reproduce the
// stored samples exactly.
func (c *Clip) Sample(bone string, frame float64) Pose {
	track := c.Tracks[bone]
	if len(track) == 0 {
		return IdentityPose()
	}
	pos := frame - float64(c.FrameStart)
	if pos <= 0 {
		return track[0]
	}
	if pos >= float64(len(track)-1) {
		return track[len(track)-1]
	}
	i := int(math.Floor(pos))
	t := pos - float64(i)
	if t == 0 {
		return track[i]
	}
	return track[i].Lerp(track[i+1], t)
}

// Clone deep-copies the clip. The rig controller edits a copy so the
// dictionary clip stays pristine for the row's reference reads.
func (c *Clip) Clone() *Clip {
	out := NewClip(c.FrameStart, c.FrameEnd)
	for bone, track := range c.Tracks {
		dup := make([]Pose, len(track))
		copy(dup, track)
		out.Tracks[bone] = dup
	}
	return out
}

package anim

import (
	"math"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
)

// Resample retimes a clip by the duration factor k, scaling the frame span
// rather than the frame count: the new range is
// [FrameStart, FrameStart + (FrameEnd-FrameStart)*k], so k=1 returns an
// exact copy and per-frame timing stays linear for every k.
//
// Non-integer spans are rounded up and filled by the curve sampler's linear
// interpolation. k <= 0 is a timing error.
func Resample(c *Clip, k float64) (*Clip, error) {
	if k <= 0 {
		return nil, &mms.TimingError{Row: -1, Reason: "resample factor must be positive"}
	}
	span := c.FrameEnd - c.FrameStart
	newSpan := int(math.Ceil(k * float64(span)))
	return ResampleToCount(c, newSpan+1)
}

// ResampleToCount retimes a clip to an explicit frame count, used by the
// absolute timing mode where the MMS dictates the merged span directly.
func ResampleToCount(c *Clip, frames int) (*Clip, error) {
	if frames < 1 {
		return nil, &mms.TimingError{Row: -1, Reason: "resample frame count must be at least 1"}
	}
	out := NewClip(c.FrameStart, c.FrameStart+frames-1)
	if frames == 1 {
		for bone := range c.Tracks {
			out.Tracks[bone] = []Pose{c.Sample(bone, float64(c.FrameStart))}
		}
		return out, nil
	}

	ratio := float64(c.FrameEnd-c.FrameStart) / float64(frames-1)
	for bone := range c.Tracks {
		track := make([]Pose, frames)
		for i := 0; i < frames; i++ {
			track[i] = c.Sample(bone, float64(c.FrameStart)+float64(i)*ratio)
		}
		out.Tracks[bone] = track
	}
	return out, nil
}

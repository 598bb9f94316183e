// Package compose merges per-gloss inflected clips into the single master
// timeline and finalizes it for export.
package compose

import (
	"sort"
	"strings"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
)

// Keyframe is one timeline sample of one bone.
type Keyframe struct {
	Frame float64
	Pose  anim.Pose
}

// MasterTrack accumulates the composed animation for the whole pipeline run:
// one ordered keyframe list per bone plus exporter-facing metadata. It is
// mutated only by the Glue and finalized exactly once.
type MasterTrack struct {
	Tracks map[string][]Keyframe

	// Interpolation names the easing exporters should apply between keys;
	// set by the post-bake pass.
	Interpolation string
}

// NewMasterTrack allocates an empty timeline.
func NewMasterTrack() *MasterTrack {
	return &MasterTrack{Tracks: make(map[string][]Keyframe)}
}

// Insert writes a sample, keeping the track ordered by frame. A sample at an
// already-written timestamp overwrites it: the last writer wins, with no
// blending, which is also the documented resolution for overlapping rows.
func (m *MasterTrack) Insert(bone string, frame float64, pose anim.Pose) {
	track := m.Tracks[bone]
	i := sort.Search(len(track), func(i int) bool { return track[i].Frame >= frame })
	if i < len(track) && track[i].Frame == frame {
		track[i].Pose = pose
		return
	}
	track = append(track, Keyframe{})
	copy(track[i+1:], track[i:])
	track[i] = Keyframe{Frame: frame, Pose: pose}
	m.Tracks[bone] = track
}

// Bones returns the bone names present on the timeline, sorted.
func (m *MasterTrack) Bones() []string {
	names := make([]string, 0, len(m.Tracks))
	for name := range m.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FrameRange returns the first and last written frame across all bones.
func (m *MasterTrack) FrameRange() (first, last float64) {
	started := false
	for _, track := range m.Tracks {
		if len(track) == 0 {
			continue
		}
		if !started || track[0].Frame < first {
			first = track[0].Frame
		}
		if !started || track[len(track)-1].Frame > last {
			last = track[len(track)-1].Frame
		}
		started = true
	}
	return first, last
}

// PoseAt evaluates a bone at a frame with linear interpolation between the
// surrounding keys, clamped at the ends.
func (m *MasterTrack) PoseAt(bone string, frame float64) anim.Pose {
	track := m.Tracks[bone]
	if len(track) == 0 {
		return anim.IdentityPose()
	}
	i := sort.Search(len(track), func(i int) bool { return track[i].Frame >= frame })
	if i == 0 {
		return track[0].Pose
	}
	if i == len(track) {
		return track[len(track)-1].Pose
	}
	if track[i].Frame == frame {
		return track[i].Pose
	}
	prev, next := track[i-1], track[i]
	t := (frame - prev.Frame) / (next.Frame - prev.Frame)
	return prev.Pose.Lerp(next.Pose, t)
}

// dropTransient removes controller proxy tracks and ignore-listed bones.
func (m *MasterTrack) dropTransient(ignore map[string]bool) {
	for bone := range m.Tracks {
		if strings.HasPrefix(bone, "IK_CTRL_") || ignore[bone] {
			delete(m.Tracks, bone)
		}
	}
}

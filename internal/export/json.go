// Package export writes the finalized timeline for the downstream
// consumers: web-player JSON, BVH skeletal animation, and MP4 encoding of a
// rendered frame sequence.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/compose"
)

// AnimData is the web-player JSON payload: per-frame bone quaternions in
// bone-list order, with the sampling rate in seconds per frame.
type AnimData struct {
	Bones        []string    `json:"bones"`
	SamplingRate string      `json:"samplingRate"`
	AnimData     []FrameData `json:"animData"`
}

// FrameData carries one frame's rotations.
type FrameData struct {
	RotationsDatas []BoneRotation `json:"rotationsDatas"`
}

// BoneRotation is one bone's orientation quaternion as w,x,y,z strings.
type BoneRotation struct {
	BoneRotation [4]string `json:"boneRotation"`
}

// BuildAnimData samples the finalized track at every integer frame of its
// range and collects the quaternions of the listed bones.
func BuildAnimData(track *compose.MasterTrack, bones []string) *AnimData {
	out := &AnimData{
		Bones:        bones,
		SamplingRate: strconv.FormatFloat(1.0/anim.FPS, 'f', -1, 64),
	}
	first, last := track.FrameRange()
	for frame := int(first); frame < int(last); frame++ {
		fd := FrameData{RotationsDatas: make([]BoneRotation, 0, len(bones))}
		for _, bone := range bones {
			q := track.PoseAt(bone, float64(frame)).Rot
			fd.RotationsDatas = append(fd.RotationsDatas, BoneRotation{
				BoneRotation: [4]string{
					formatComponent(q.W),
					formatComponent(q.V.X()),
					formatComponent(q.V.Y()),
					formatComponent(q.V.Z()),
				},
			})
		}
		out.AnimData = append(out.AnimData, fd)
	}
	return out
}

// formatComponent renders a quaternion component; exponent-notation noise
// near zero collapses to "0", matching the historical exporter output.
func formatComponent(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, "eE") || math.IsNaN(v) {
		return "0"
	}
	return s
}

// WriteJSON streams the animData payload.
func WriteJSON(w io.Writer, track *compose.MasterTrack, bones []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildAnimData(track, bones))
}

// WriteJSONFile writes the animData payload to a file.
func WriteJSONFile(path string, track *compose.MasterTrack, bones []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %q: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(f, track, bones)
}

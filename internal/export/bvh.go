package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/compose"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
)

// WriteBVH writes the finalized timeline as a BVH file over the given
// skeleton. Channels are ZXY rotation order, matching the rest of the
// pipeline; the root bone additionally carries position channels.
func WriteBVH(w io.Writer, skel *rig.Skeleton, track *compose.MasterTrack) error {
	bones := skel.Bones()
	if len(bones) == 0 {
		return fmt.Errorf("export: skeleton has no bones")
	}

	children := make(map[string][]string)
	for _, name := range bones {
		b := skel.Bone(name)
		if b.Parent != "" {
			children[b.Parent] = append(children[b.Parent], name)
		}
	}

	root := bones[0]
	if _, err := fmt.Fprintln(w, "HIERARCHY"); err != nil {
		return err
	}
	if err := writeJoint(w, skel, children, root, 0, true); err != nil {
		return err
	}

	first, last := track.FrameRange()
	frames := int(last) - int(first) + 1
	if frames < 1 {
		frames = 1
	}
	fmt.Fprintln(w, "MOTION")
	fmt.Fprintf(w, "Frames: %d\n", frames)
	fmt.Fprintf(w, "Frame Time: %.8f\n", 1.0/anim.FPS)

	for f := 0; f < frames; f++ {
		frame := first + float64(f)
		for i, name := range bones {
			pose := track.PoseAt(name, frame)
			if i == 0 {
				fmt.Fprintf(w, "%.6f %.6f %.6f ", pose.Loc.X(), pose.Loc.Y(), pose.Loc.Z())
			}
			e := anim.EulerZXYFromQuat(pose.Rot)
			fmt.Fprintf(w, "%.6f %.6f %.6f ", degrees(e.Z()), degrees(e.X()), degrees(e.Y()))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteBVHFile writes the BVH to disk.
func WriteBVHFile(path string, skel *rig.Skeleton, track *compose.MasterTrack) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %q: %w", path, err)
	}
	defer f.Close()
	return WriteBVH(f, skel, track)
}

func writeJoint(w io.Writer, skel *rig.Skeleton, children map[string][]string, name string, depth int, isRoot bool) error {
	indent := indentOf(depth)
	b := skel.Bone(name)

	offset := b.Head
	if b.Parent != "" {
		offset = b.Head.Sub(skel.Bone(b.Parent).Head)
	}

	keyword := "JOINT"
	channels := "CHANNELS 3 Zrotation Xrotation Yrotation"
	if isRoot {
		keyword = "ROOT"
		channels = "CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation"
	}
	fmt.Fprintf(w, "%s%s %s\n%s{\n", indent, keyword, name, indent)
	fmt.Fprintf(w, "%s  OFFSET %s\n", indent, formatOffset(offset))
	fmt.Fprintf(w, "%s  %s\n", indent, channels)

	kids := children[name]
	if len(kids) == 0 {
		tail := b.Tail.Sub(b.Head)
		fmt.Fprintf(w, "%s  End Site\n%s  {\n%s    OFFSET %s\n%s  }\n",
			indent, indent, indent, formatOffset(tail), indent)
	}
	for _, child := range kids {
		if err := writeJoint(w, skel, children, child, depth+1, false); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s}\n", indent)
	return err
}

// formatOffset guards against zero-length offsets, which several BVH
// importers reject on non-root joints.
func formatOffset(v mgl64.Vec3) string {
	if v.Len() == 0 {
		v = mgl64.Vec3{0.1, 0, 0}
	}
	return fmt.Sprintf("%.6f %.6f %.6f", v.X(), v.Y(), v.Z())
}

func indentOf(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

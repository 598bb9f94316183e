package compose

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
)

// MissingPriorPoseError reports a <HOLD> row with nothing before it: there
// is no pose to freeze.
type MissingPriorPoseError struct {
	Row int
}

func (e *MissingPriorPoseError) Error() string {
	return "compose: <HOLD> as the first row has no prior pose to freeze"
}

// Glue stitches each row's resampled, inflected clip into the master
// timeline at the row's offset and advances the cursor. Rows must arrive in
// document order; the cursor and the <HOLD> pose both depend on the rows
// already merged.
type Glue struct {
	track    *MasterTrack
	relative bool

	// cursor is the last written frame; timeline frames start at 1.
	cursor int
	// lastPose is the final pose of the previously merged clip, per bone.
	lastPose map[string]anim.Pose
	// lastSpan is the previous clip's frame span, for ratio-duration holds.
	lastSpan int
	merged   int
	baked    bool
}

// NewGlue starts an empty timeline in the given timing mode.
func NewGlue(relative bool) *Glue {
	return &Glue{
		track:    NewMasterTrack(),
		relative: relative,
		cursor:   1,
	}
}

// Track exposes the accumulating timeline (read-only for callers; tests and
// exporters read it after PostBake).
func (g *Glue) Track() *MasterTrack {
	return g.track
}

// Cursor returns the current end-of-timeline frame.
func (g *Glue) Cursor() int {
	return g.cursor
}

// MergeRow merges one row. For regular rows the clip must be the row's
// resampled (and possibly inflected) motion; for <HOLD> rows clip is ignored
// and the previous row's final pose is frozen across the hold span.
func (g *Glue) MergeRow(row *mms.Row, clip *anim.Clip) error {
	if row.IsHold() {
		return g.mergeHold(row)
	}
	if clip == nil {
		return &mms.TimingError{Row: row.Index, Reason: "row has no clip to merge"}
	}

	start, end := g.rowSpan(row, clip)
	logrus.WithFields(logrus.Fields{
		"gloss": row.OutputName(),
		"start": start,
		"end":   end,
	}).Info("merging gloss into timeline")

	span := clip.FrameEnd - clip.FrameStart
	if got := start + span; got != end {
		// Rounding may put the resampled end one frame off the declared one.
		if got < end-1 || got > end+1 {
			logrus.WithFields(logrus.Fields{"gloss": row.OutputName(), "want": end, "got": got}).
				Warn("merged clip span disagrees with row timing")
		}
		end = got
	}

	g.lastPose = make(map[string]anim.Pose, len(clip.Tracks))
	for bone, poses := range clip.Tracks {
		for i, pose := range poses {
			g.track.Insert(bone, float64(start+i), pose)
		}
		g.lastPose[bone] = poses[len(poses)-1]
	}
	g.lastSpan = span
	g.cursor = end
	g.merged++
	return nil
}

// rowSpan computes the merge window in timeline frames. Absolute mode uses
// the row's own timestamps; relative mode accumulates the cursor.
func (g *Glue) rowSpan(row *mms.Row, clip *anim.Clip) (start, end int) {
	if g.relative {
		start = g.cursor + secondsToFrames(row.Transition)
		end = start + (clip.FrameEnd - clip.FrameStart)
		return start, end
	}
	// Timeline frames start at 1, hence the +1 on both ends.
	start = int(math.Ceil(row.FrameStart*anim.FPS)) + 1
	end = int(math.Floor(row.FrameEnd*anim.FPS)) + 1
	return start, end
}

// mergeHold freezes the previous row's final pose across the hold span.
func (g *Glue) mergeHold(row *mms.Row) error {
	if g.merged == 0 {
		return &MissingPriorPoseError{Row: row.Index}
	}

	var start, end int
	if g.relative {
		start = g.cursor + secondsToFrames(row.Transition)
		span := secondsToFrames(row.Duration)
		if row.DurationIsRatio {
			span = int(math.Ceil(row.Duration * float64(g.lastSpan)))
		}
		end = start + span
	} else {
		start = int(math.Ceil(row.FrameStart*anim.FPS)) + 1
		end = int(math.Floor(row.FrameEnd*anim.FPS)) + 1
	}

	logrus.WithFields(logrus.Fields{"start": start, "end": end}).Info("performing HOLD")
	for bone, pose := range g.lastPose {
		g.track.Insert(bone, float64(start), pose)
		g.track.Insert(bone, float64(end), pose)
	}
	g.cursor = end
	g.merged++
	return nil
}

// PostBake finalizes the timeline: transient controller tracks and
// ignore-listed bones are stripped and the exporter easing is recorded. The
// returned MasterTrack is the single atomic output of the pipeline; PostBake
// must be called exactly once, after the last row.
func (g *Glue) PostBake(ignoreBones []string) *MasterTrack {
	if g.baked {
		return g.track
	}
	ignore := make(map[string]bool, len(ignoreBones))
	for _, bone := range ignoreBones {
		ignore[bone] = true
	}
	g.track.dropTransient(ignore)
	g.track.Interpolation = "sine-ease-in-out"
	g.baked = true

	first, last := g.track.FrameRange()
	logrus.WithFields(logrus.Fields{
		"bones": len(g.track.Tracks),
		"first": first,
		"last":  last,
	}).Info("timeline finalized")
	return g.track
}

func secondsToFrames(s float64) int {
	return int(math.Ceil(s * anim.FPS))
}

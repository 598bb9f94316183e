// Package player drives the inflection-and-composition pipeline: for each
// MMS row it loads the gloss clip, retimes it, applies the row's inflection
// targets through a transient controller chain, and hands the result to the
// composer. Rows are processed strictly in document order; only the
// per-frame edits inside a row run in parallel.
package player

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/compose"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/inflect"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
)

// Loader is the animation dictionary collaborator.
type Loader interface {
	Load(datatype, gloss string) (*anim.Clip, error)
}

// Options tune one pipeline run.
type Options struct {
	// WithoutInflection skips every Target edit; with the identity-skip
	// contract this also skips all controller round-trips.
	WithoutInflection bool
	// IgnoreGlossDuration keeps each clip's own duration instead of
	// resampling it to the row timing.
	IgnoreGlossDuration bool
	// IgnoreBones are stripped from the finalized track.
	IgnoreBones []string
	// Workers bounds the per-frame edit parallelism; 0 means NumCPU.
	Workers int
}

// Player binds the pipeline's collaborators for repeated runs.
type Player struct {
	dict   Loader
	skel   *rig.Skeleton
	solver rig.Solver
	opts   Options
}

// New builds a player. A nil solver falls back to the built-in direct
// solver.
func New(dict Loader, skel *rig.Skeleton, solver rig.Solver, opts Options) *Player {
	if solver == nil {
		solver = rig.DirectSolver{}
	}
	return &Player{dict: dict, skel: skel, solver: solver, opts: opts}
}

// Realize converts a parsed MMS document into the finalized master track.
// Validation failures surface before any merge; a runtime failure aborts the
// run, leaving rows already merged in place (composition is not
// transactional).
func (p *Player) Realize(doc *mms.Document) (*compose.MasterTrack, error) {
	glue := compose.NewGlue(doc.RelativeTime)

	for _, row := range doc.Rows {
		if err := p.processRow(doc, row, glue); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", row.Index, row.Gloss, err)
		}
	}
	return glue.PostBake(p.opts.IgnoreBones), nil
}

func (p *Player) processRow(doc *mms.Document, row *mms.Row, glue *compose.Glue) error {
	log := logrus.WithFields(logrus.Fields{"row": row.Index, "gloss": row.Gloss})

	if row.IsHold() {
		return glue.MergeRow(row, nil)
	}

	clip, err := p.dict.Load(row.Datatype, row.Gloss)
	if err != nil {
		return err
	}

	if !p.opts.IgnoreGlossDuration {
		clip, err = p.resampleRow(doc, row, clip)
		if err != nil {
			return err
		}
	}

	if !p.opts.WithoutInflection {
		if err := p.inflectRow(row, clip); err != nil {
			return err
		}
	}

	log.WithField("frames", clip.FrameCount()).Debug("row ready to merge")
	return glue.MergeRow(row, clip)
}

// resampleRow retimes the clip to the row's declared duration.
func (p *Player) resampleRow(doc *mms.Document, row *mms.Row, clip *anim.Clip) (*anim.Clip, error) {
	if doc.RelativeTime {
		if row.DurationIsRatio {
			return anim.Resample(clip, row.Duration)
		}
		span := secondsToFrames(row.Duration)
		if span < 1 {
			return nil, &mms.TimingError{Row: row.Index, Reason: "duration shorter than one frame"}
		}
		// The last frame marks an instant, so a span of N intervals needs
		// N+1 samples.
		return anim.ResampleToCount(clip, span+1)
	}

	frames := absoluteSpanFrames(row)
	if frames < 1 {
		return nil, &mms.TimingError{Row: row.Index, Reason: "frameend is not after framestart"}
	}
	return anim.ResampleToCount(clip, frames)
}

// inflectRow applies the row's non-identity inflection groups in registry
// order. Controller-based edits run as one critical section per chain:
// bind, bake-in, per-frame edit, bake-out, release — with release guaranteed
// on every exit path.
func (p *Player) inflectRow(row *mms.Row, clip *anim.Clip) error {
	for _, group := range mms.Groups {
		params, ok := row.Groups[group.Name]
		if !ok {
			continue
		}
		if params.IsIdentity() {
			// Skipping identity groups avoids the bounded precision loss
			// of a controller round-trip.
			logrus.WithFields(logrus.Fields{"row": row.Index, "group": group.Name}).
				Debug("identity parameters, skipping chain")
			continue
		}

		target, err := inflect.New(params)
		if err != nil {
			return err
		}
		if err := p.applyTarget(target, clip); err != nil {
			return fmt.Errorf("group %s: %w", group.Name, err)
		}
	}
	return nil
}

func (p *Player) applyTarget(target inflect.Target, clip *anim.Clip) error {
	group := target.Group()

	if !target.NeedsController() {
		track := clip.Tracks[group.Bone]
		if track == nil {
			return &rig.BindingError{Bone: group.Bone}
		}
		target.Anchor(track[0])
		p.applyFrames(track, target)
		return nil
	}

	ctrl, err := rig.NewController(p.skel, p.solver, rig.ChainSpec{
		Name: group.Name,
		Bone: group.Bone,
		Root: group.Root,
	})
	if err != nil {
		return err
	}
	defer ctrl.Release()

	if err := ctrl.BakeIn(clip); err != nil {
		return err
	}
	curve := ctrl.Curve()
	if len(curve) == 0 {
		return fmt.Errorf("controller %s baked an empty curve", ctrl.ID)
	}
	target.Anchor(curve[0])
	p.applyFrames(curve, target)
	return ctrl.BakeOut()
}

// applyFrames runs the pure per-frame edit over the curve, chunked across
// workers: there is no cross-frame data dependency.
func (p *Player) applyFrames(poses []anim.Pose, target inflect.Target) {
	workers := p.opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(poses) {
		workers = len(poses)
	}
	if workers <= 1 {
		for i := range poses {
			poses[i] = target.Inflect(poses[i])
		}
		return
	}

	chunk := (len(poses) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(poses); start += chunk {
		end := start + chunk
		if end > len(poses) {
			end = len(poses)
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				poses[i] = target.Inflect(poses[i])
			}
		}(start, end)
	}
	wg.Wait()
}

func secondsToFrames(s float64) int {
	return ceilFrames(s)
}

// absoluteSpanFrames is the merged frame count dictated by absolute row
// timing: ceil(start·FPS) through floor(end·FPS), inclusive.
func absoluteSpanFrames(row *mms.Row) int {
	start := ceilFrames(row.FrameStart)
	end := floorFrames(row.FrameEnd)
	return end - start + 1
}

func ceilFrames(s float64) int {
	f := s * anim.FPS
	i := int(f)
	if float64(i) < f {
		i++
	}
	return i
}

func floorFrames(s float64) int {
	f := s * anim.FPS
	i := int(f)
	if float64(i) > f {
		i--
	}
	return i
}

// Package dictionary loads gloss motion clips from the generated corpus
// directory. The pipeline treats it as an external collaborator: one
// synchronous lookup per row, no caching across rows.
package dictionary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
)

// NotFoundError reports a gloss with no motion file in the dictionary.
type NotFoundError struct {
	Gloss string
	Path  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dictionary: no motion data for gloss %q (expected %q)", e.Gloss, e.Path)
}

// clipFile is the on-disk clip layout: per-bone pose samples over an
// inclusive frame range.
type clipFile struct {
	FrameStart   int                     `json:"frameStart"`
	FrameEnd     int                     `json:"frameEnd"`
	SamplingRate float64                 `json:"samplingRate"`
	Bones        map[string][]sampleJSON `json:"bones"`
}

type sampleJSON struct {
	Loc [3]float64 `json:"loc"`
	Rot [4]float64 `json:"rot"` // w, x, y, z
}

// Dictionary resolves gloss ids against the corpus layout
// <root>/<datatype>/trimmed/<gloss>.json.
type Dictionary struct {
	root string
}

// New opens a dictionary rooted at the corpus "generated" directory.
func New(root string) *Dictionary {
	return &Dictionary{root: root}
}

// Load reads one gloss clip. The returned clip is owned by the caller and is
// expected to be discarded after the row's baking completes.
func (d *Dictionary) Load(datatype, gloss string) (*anim.Clip, error) {
	path := filepath.Join(d.root, datatype, "trimmed", gloss+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Gloss: gloss, Path: path}
		}
		return nil, fmt.Errorf("dictionary: reading %q: %w", path, err)
	}

	var file clipFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("dictionary: decoding %q: %w", path, err)
	}
	if file.FrameEnd < file.FrameStart {
		return nil, fmt.Errorf("dictionary: %q has an inverted frame range %d-%d", path, file.FrameStart, file.FrameEnd)
	}

	clip := anim.NewClip(file.FrameStart, file.FrameEnd)
	want := clip.FrameCount()
	for bone, samples := range file.Bones {
		if len(samples) != want {
			return nil, fmt.Errorf("dictionary: %q: bone %q has %d samples, want %d", path, bone, len(samples), want)
		}
		track := make([]anim.Pose, len(samples))
		for i, s := range samples {
			track[i] = anim.Pose{
				Loc: mgl64.Vec3{s.Loc[0], s.Loc[1], s.Loc[2]},
				Rot: mgl64.Quat{W: s.Rot[0], V: mgl64.Vec3{s.Rot[1], s.Rot[2], s.Rot[3]}},
			}
		}
		clip.Tracks[bone] = track
	}

	logrus.WithFields(logrus.Fields{
		"gloss":  gloss,
		"frames": want,
		"bones":  len(clip.Tracks),
	}).Debug("clip loaded")
	return clip, nil
}

// The mmsplayer command realizes an MMS document from the command line and
// writes the result as animation JSON, BVH, or an MP4 encoded from an
// externally rendered frame sequence.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/config"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/dictionary"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/export"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/player"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
)

func main() {
	var (
		mmsPath             = flag.String("mms", "", "path to the MMS CSV document (required)")
		corpusDir           = flag.String("corpus", os.Getenv("CORPUS_DIR"), "corpus directory holding the motion dictionary")
		relativeTime        = flag.Bool("relative-time", false, "interpret timing as duration/transition instead of absolute frames")
		withoutInflection   = flag.Bool("without-inflection", false, "skip all inflection edits, play dictionary clips as-is")
		ignoreGlossDuration = flag.Bool("ignore-gloss-duration", false, "keep each clip's own duration instead of the row timing")
		ignoreBones         = flag.String("ignore-bones", "", "comma-separated bones to strip from the output")
		jsonOut             = flag.String("json", "", "write the animation JSON to this path")
		bvhOut              = flag.String("bvh", "", "write a BVH render of the animation to this path")
		framesPattern       = flag.String("frames", "", "ffmpeg image pattern of an already-rendered frame sequence, e.g. render/frame_%04d.png")
		mp4Out              = flag.String("mp4", "", "encode the -frames sequence into an MP4 at this path")
		logLevel            = flag.String("log-level", "info", "logrus level: debug, info, warn, error")
	)
	flag.Parse()

	config.InitLogger(false, *logLevel)

	if *mmsPath == "" {
		flag.Usage()
		logrus.Fatal("-mms is required")
	}
	if *corpusDir == "" {
		logrus.Fatal("-corpus or CORPUS_DIR is required")
	}
	if *jsonOut == "" && *bvhOut == "" && *mp4Out == "" {
		logrus.Fatal("nothing to do: pass -json, -bvh and/or -mp4")
	}
	if (*mp4Out == "") != (*framesPattern == "") {
		logrus.Fatal("-mp4 and -frames must be passed together")
	}

	doc, err := mms.ParseFile(*mmsPath, *relativeTime)
	if err != nil {
		logrus.WithError(err).Fatal("parsing MMS document failed")
	}
	logrus.WithFields(logrus.Fields{"rows": len(doc.Rows), "file": *mmsPath}).Info("document parsed")

	opts := player.Options{
		WithoutInflection:   *withoutInflection,
		IgnoreGlossDuration: *ignoreGlossDuration,
		IgnoreBones:         splitList(*ignoreBones),
	}
	skel := rig.DefaultSkeleton()
	track, err := player.New(dictionary.New(*corpusDir), skel, nil, opts).Realize(doc)
	if err != nil {
		logrus.WithError(err).Fatal("realization failed")
	}

	first, last := track.FrameRange()
	logrus.WithFields(logrus.Fields{"first": first, "last": last}).Info("realization finished")

	if *jsonOut != "" {
		if err := export.WriteJSONFile(*jsonOut, track, skel.Bones()); err != nil {
			logrus.WithError(err).Fatal("writing JSON failed")
		}
		fmt.Println("wrote", *jsonOut)
	}
	if *bvhOut != "" {
		if err := export.WriteBVHFile(*bvhOut, skel, track); err != nil {
			logrus.WithError(err).Fatal("writing BVH failed")
		}
		fmt.Println("wrote", *bvhOut)
	}
	if *mp4Out != "" {
		if err := export.EncodeVideo(*framesPattern, *mp4Out, int(anim.FPS)); err != nil {
			logrus.WithError(err).Fatal("encoding MP4 failed")
		}
		if dur, err := export.ProbeDuration(*mp4Out); err != nil {
			logrus.WithError(err).Warn("could not probe the encoded video")
		} else {
			want := (last - first) / anim.FPS
			logrus.WithFields(logrus.Fields{
				"video":    dur.Seconds(),
				"timeline": want,
			}).Info("encoded video duration")
		}
		fmt.Println("wrote", *mp4Out)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// EncodeVideo encodes an already-rendered frame sequence into an H.264 MP4.
// Rendering the frames themselves is the host environment's job; this only
// covers the encoding step. framePattern is an ffmpeg image pattern such as
// "/tmp/run/frame_%04d.png".
func EncodeVideo(framePattern, outputFile string, fps int) error {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", framePattern,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", "18",
		outputFile,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w\nstderr: %s", err, stderr.String())
	}

	logrus.WithFields(logrus.Fields{"output": outputFile, "fps": fps}).Info("video encoded")
	return nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration asks ffprobe for the duration of an encoded file, used to
// sanity-check the render against the composed timeline length.
func ProbeDuration(filePath string) (time.Duration, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %q", filePath)
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ffprobe duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

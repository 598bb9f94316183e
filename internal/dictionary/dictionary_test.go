package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeClip(t *testing.T, root, datatype, gloss, body string) {
	t.Helper()
	dir := filepath.Join(root, datatype, "trimmed")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, gloss+".json"), []byte(body), 0o644))
}

func TestLoadClip(t *testing.T) {
	root := t.TempDir()
	writeClip(t, root, "signs", "HAUS", `{
		"frameStart": 1,
		"frameEnd": 3,
		"samplingRate": 60,
		"bones": {
			"Bone_R_Hand": [
				{"loc": [0, 0, 0], "rot": [1, 0, 0, 0]},
				{"loc": [0.1, 0, 0], "rot": [1, 0, 0, 0]},
				{"loc": [0.2, 0, 0], "rot": [1, 0, 0, 0]}
			]
		}
	}`)

	clip, err := New(root).Load("signs", "HAUS")
	require.NoError(t, err)

	assert.Equal(t, 3, clip.FrameCount())
	track := clip.Track("Bone_R_Hand")
	require.Len(t, track, 3)
	assert.Equal(t, 0.2, track[2].Loc.X())
	assert.Equal(t, 1.0, track[2].Rot.W)
}

func TestLoadMissingGloss(t *testing.T) {
	_, err := New(t.TempDir()).Load("signs", "FEHLT")
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "FEHLT", nerr.Gloss)
}

func TestLoadDatatypeSelectsSection(t *testing.T) {
	root := t.TempDir()
	writeClip(t, root, "fingeralphabet", "A", `{"frameStart":1,"frameEnd":1,"samplingRate":60,"bones":{}}`)

	_, err := New(root).Load("fingeralphabet", "A")
	require.NoError(t, err)
	_, err = New(root).Load("signs", "A")
	assert.Error(t, err)
}

func TestLoadRejectsBadRanges(t *testing.T) {
	root := t.TempDir()
	writeClip(t, root, "signs", "KAPUTT", `{"frameStart":5,"frameEnd":1,"samplingRate":60,"bones":{}}`)
	_, err := New(root).Load("signs", "KAPUTT")
	assert.Error(t, err)
}

func TestLoadRejectsSampleCountMismatch(t *testing.T) {
	root := t.TempDir()
	writeClip(t, root, "signs", "KURZ", `{
		"frameStart": 1,
		"frameEnd": 3,
		"samplingRate": 60,
		"bones": {"Bone_R_Hand": [{"loc": [0,0,0], "rot": [1,0,0,0]}]}
	}`)
	_, err := New(root).Load("signs", "KURZ")
	assert.Error(t, err)
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/anim"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/status"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/worker"
)

type memDict map[string]*anim.Clip

func (d memDict) Load(datatype, gloss string) (*anim.Clip, error) {
	clip, ok := d[gloss]
	if !ok {
		return nil, fmt.Errorf("gloss %q not in dictionary", gloss)
	}
	return clip.Clone(), nil
}

func testClip(frames int) *anim.Clip {
	c := anim.NewClip(1, frames)
	track := make([]anim.Pose, frames)
	for i := range track {
		track[i] = anim.Pose{Loc: mgl64.Vec3{0.01 * float64(i), 0, 0}, Rot: mgl64.QuatIdent()}
	}
	c.Tracks[mms.BoneDomHand] = track
	return c
}

func newTestApp(t *testing.T) (*fiber.App, *Handler) {
	t.Helper()
	store, err := status.NewStore("", "")
	require.NoError(t, err)

	dispatcher := worker.NewDispatcher(1, 4)
	dispatcher.Run()
	t.Cleanup(dispatcher.Stop)

	h := NewHandler(t.TempDir(), memDict{"HAUS": testClip(13)}, rig.DefaultSkeleton(), store, dispatcher)
	return NewApp(h), h
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateRealizationValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/realizations", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Status string   `json:"status"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	require.NotEmpty(t, body.Errors)
	assert.Contains(t, body.Errors[0], "MMS")
}

func TestCreateRealizationRejectsBadDocument(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/realizations", RealizationRequest{
		MMS:          "maingloss,framestart,frameend,mood\nHAUS,0,1,happy\n",
		RelativeTime: false,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRealizationLifecycle(t *testing.T) {
	app, h := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/realizations", RealizationRequest{
		MMS:          "maingloss,duration,transition\nHAUS,0.2,0\n",
		RelativeTime: true,
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var created struct {
		Data struct {
			JobID string `json:"job_id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.Data.JobID)

	require.Eventually(t, func() bool {
		rec := h.Store.Get(created.Data.JobID)
		return rec != nil && rec.Status == status.StateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/realizations/"+created.Data.JobID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/realizations/"+created.Data.JobID+"/animation", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Bones []string `json:"bones"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Contains(t, result.Data.Bones, mms.BoneDomHand)
}

func TestGetRealizationBadID(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/realizations/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/realizations/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetSentenceAnimationRejectsTraversal(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/api/v1/sentences/..%2Fsecrets/animation", nil)
	assert.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetSentenceAnimationMissingFile(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doJSON(t, app, http.MethodGet, "/api/v1/sentences/UNBEKANNT/animation", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

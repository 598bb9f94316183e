// Package server exposes the realization pipeline over HTTP: synchronous
// rendering of corpus sentences and an asynchronous job API for uploaded
// MMS documents.
package server

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/export"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/player"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/rig"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/status"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/worker"
)

// Handler holds the shared dependencies of all HTTP handlers.
type Handler struct {
	CorpusDir  string
	Dict       player.Loader
	Skel       *rig.Skeleton
	Store      *status.Store
	Dispatcher *worker.Dispatcher
	Validate   *validator.Validate

	mu      sync.RWMutex
	results map[string]*export.AnimData
}

// NewHandler wires the handler dependencies.
func NewHandler(corpusDir string, dict player.Loader, skel *rig.Skeleton, store *status.Store, dispatcher *worker.Dispatcher) *Handler {
	return &Handler{
		CorpusDir:  corpusDir,
		Dict:       dict,
		Skel:       skel,
		Store:      store,
		Dispatcher: dispatcher,
		Validate:   validator.New(),
		results:    make(map[string]*export.AnimData),
	}
}

// Health reports service liveness.
// GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "MMS realization service is healthy",
	})
}

// GetSentenceAnimation realizes a corpus sentence synchronously and returns
// the animation JSON.
// GET /api/v1/sentences/:name/animation
func (h *Handler) GetSentenceAnimation(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid sentence name")
	}

	relativeTime := c.QueryBool("relative_time", false)
	path := filepath.Join(h.CorpusDir, "sentences", name+".csv")

	doc, err := mms.ParseFile(path, relativeTime)
	if err != nil {
		logrus.WithError(err).WithField("sentence", name).Warn("sentence parse failed")
		return respondWithError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Could not parse sentence: %v", err))
	}

	opts := player.Options{
		WithoutInflection:   c.QueryBool("without_inflection", false),
		IgnoreGlossDuration: c.QueryBool("ignore_gloss_duration", false),
	}
	track, err := player.New(h.Dict, h.Skel, nil, opts).Realize(doc)
	if err != nil {
		logrus.WithError(err).WithField("sentence", name).Error("realization failed")
		return respondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Realization failed: %v", err))
	}

	return respondWithJSON(c, fiber.StatusOK, export.BuildAnimData(track, h.Skel.Bones()))
}

// RealizationRequest is the POST /realizations payload.
type RealizationRequest struct {
	// MMS is the document content, CSV text.
	MMS                 string `json:"mms" validate:"required"`
	RelativeTime        bool   `json:"relative_time"`
	WithoutInflection   bool   `json:"without_inflection"`
	IgnoreGlossDuration bool   `json:"ignore_gloss_duration"`
}

// CreateRealization queues an uploaded MMS document for rendering.
// POST /api/v1/realizations
func (h *Handler) CreateRealization(c *fiber.Ctx) error {
	var req RealizationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := h.Validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  formatValidationErrors(err),
		})
	}

	// Reject malformed documents before a worker is committed to them.
	doc, err := mms.Parse(strings.NewReader(req.MMS), req.RelativeTime)
	if err != nil {
		return respondWithError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Could not parse MMS document: %v", err))
	}

	jobID, err := h.Store.Create("realization", req)
	if err != nil {
		logrus.WithError(err).Error("creating job record failed")
		return respondWithError(c, fiber.StatusInternalServerError, "Could not create job record")
	}

	job := &realizeJob{
		handler: h,
		jobID:   jobID,
		doc:     doc,
		opts: player.Options{
			WithoutInflection:   req.WithoutInflection,
			IgnoreGlossDuration: req.IgnoreGlossDuration,
		},
	}
	if !h.Dispatcher.Submit(job) {
		_ = h.Store.Update(jobID, status.StateFailed, "job queue full")
		return respondWithError(c, fiber.StatusServiceUnavailable, "Job queue is full, try again later")
	}

	return respondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"job_id": jobID,
		"status": status.StatePending,
	})
}

// GetRealization returns the status record of a job.
// GET /api/v1/realizations/:jobId
func (h *Handler) GetRealization(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	rec := h.Store.Get(jobID.String())
	if rec == nil {
		return respondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	return respondWithJSON(c, fiber.StatusOK, rec)
}

// GetRealizationAnimation returns the rendered animation of a completed job.
// GET /api/v1/realizations/:jobId/animation
func (h *Handler) GetRealizationAnimation(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "Invalid job ID format")
	}

	rec := h.Store.Get(jobID.String())
	if rec == nil {
		return respondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	if rec.Status != status.StateCompleted {
		return respondWithError(c, fiber.StatusConflict, fmt.Sprintf("Job is %s, not %s", rec.Status, status.StateCompleted))
	}

	h.mu.RLock()
	data := h.results[jobID.String()]
	h.mu.RUnlock()
	if data == nil {
		return respondWithError(c, fiber.StatusNotFound, "Job result no longer available")
	}
	return respondWithJSON(c, fiber.StatusOK, data)
}

func (h *Handler) storeResult(jobID string, data *export.AnimData) {
	h.mu.Lock()
	h.results[jobID] = data
	h.mu.Unlock()
}

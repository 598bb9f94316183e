package server

import (
	"github.com/sirupsen/logrus"

	"github.com/DFKI-SignLanguage/MMS-Player/internal/export"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/mms"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/player"
	"github.com/DFKI-SignLanguage/MMS-Player/internal/status"
)

// realizeJob renders one queued MMS document on the worker pool.
type realizeJob struct {
	handler *Handler
	jobID   string
	doc     *mms.Document
	opts    player.Options
}

func (j *realizeJob) ID() string { return j.jobID }

func (j *realizeJob) Execute() error {
	if err := j.handler.Store.Update(j.jobID, status.StateProcessing, ""); err != nil {
		logrus.WithError(err).WithField("job_id", j.jobID).Warn("status update failed")
	}

	track, err := player.New(j.handler.Dict, j.handler.Skel, nil, j.opts).Realize(j.doc)
	if err != nil {
		if serr := j.handler.Store.Update(j.jobID, status.StateFailed, err.Error()); serr != nil {
			logrus.WithError(serr).WithField("job_id", j.jobID).Warn("status update failed")
		}
		return err
	}

	j.handler.storeResult(j.jobID, export.BuildAnimData(track, j.handler.Skel.Bones()))
	if err := j.handler.Store.Update(j.jobID, status.StateCompleted, ""); err != nil {
		logrus.WithError(err).WithField("job_id", j.jobID).Warn("status update failed")
	}
	return nil
}

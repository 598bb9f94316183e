// Package worker runs realization jobs on a fixed pool so the HTTP front
// end can accept uploads without blocking on renders.
package worker

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is one unit of work, e.g. realizing an uploaded MMS document.
type Job interface {
	Execute() error
	ID() string
}

// Worker pulls jobs from its own channel after registering it with the
// shared pool.
type Worker struct {
	id         int
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan bool
	wg         *sync.WaitGroup
}

// NewWorker creates a worker bound to the dispatcher's pool.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup) Worker {
	return Worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan Job),
		quit:       make(chan bool),
		wg:         wg,
	}
}

// Start makes the worker listen for jobs on its channel.
func (w Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				log := logrus.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()})
				log.Info("job started")
				if err := job.Execute(); err != nil {
					log.WithError(err).Error("job failed")
				} else {
					log.Info("job finished")
				}
			case <-w.quit:
				logrus.WithField("worker", w.id).Debug("worker stopping")
				return
			}
		}
	}()
}

// Stop signals the worker to exit after its current job.
func (w Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}

// Dispatcher owns the worker pool and fans submitted jobs out to it.
type Dispatcher struct {
	maxWorkers int
	workerPool chan chan Job
	jobQueue   chan Job
	workers    []Worker
	wg         sync.WaitGroup
	quit       chan bool
}

// NewDispatcher sizes the pool and its submission queue.
func NewDispatcher(maxWorkers, queueSize int) *Dispatcher {
	return &Dispatcher{
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		jobQueue:   make(chan Job, queueSize),
		workers:    make([]Worker, 0, maxWorkers),
		quit:       make(chan bool),
	}
}

// Run starts the workers and the dispatch loop.
func (d *Dispatcher) Run() {
	logrus.WithField("workers", d.maxWorkers).Info("dispatcher starting")
	for i := 1; i <= d.maxWorkers; i++ {
		w := NewWorker(i, d.workerPool, &d.wg)
		d.workers = append(d.workers, w)
		w.Start()
	}
	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func(job Job) {
				jobChannel := <-d.workerPool
				jobChannel <- job
			}(job)
		case <-d.quit:
			return
		}
	}
}

// Submit queues a job without blocking; it reports whether the queue had
// room.
func (d *Dispatcher) Submit(job Job) bool {
	select {
	case d.jobQueue <- job:
		logrus.WithField("job", job.ID()).Debug("job queued")
		return true
	default:
		logrus.WithField("job", job.ID()).Warn("job queue full")
		return false
	}
}

// Stop drains the pool: no new jobs are dispatched, running jobs finish.
func (d *Dispatcher) Stop() {
	d.quit <- true
	for _, w := range d.workers {
		w.Stop()
	}
	d.wg.Wait()
	logrus.Info("dispatcher stopped")
}

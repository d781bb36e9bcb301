package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrQueueFull is returned by SubmitJob when the job queue has no room.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by SubmitJob after Stop.
	ErrStopped = errors.New("dispatcher is stopped")
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error // The method that performs the actual work
	ID() string                        // A unique identifier for the job
	Type() string
	ProjectID() string
}

// Worker is responsible for processing jobs.
// It runs in its own goroutine and pulls jobs from its dedicated channel.
type Worker struct {
	ID         int
	WorkerPool chan chan Job // A pool of channels, used to register this worker's job channel
	JobChannel chan Job      // A channel specific to this worker, to receive jobs
	Quit       chan bool     // A channel to signal the worker to stop
	Wg         *sync.WaitGroup

	registry *Registry
	log      logrus.FieldLogger
}

// NewWorker creates a new Worker.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, registry *Registry, log logrus.FieldLogger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Quit:       make(chan bool),
		Wg:         wg,
		registry:   registry,
		log:        log.WithField("worker", id),
	}
}

// Start makes the Worker listen for jobs on its JobChannel.
func (w Worker) Start() {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for {
			// Register the current worker's JobChannel to the worker pool.
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-w.Quit:
				w.log.Debug("Stopping")
				return
			}

			select {
			case job := <-w.JobChannel:
				w.run(job)
			case <-w.Quit:
				w.log.Debug("Stopping")
				return
			}
		}
	}()
}

func (w Worker) run(job Job) {
	log := w.log.WithFields(logrus.Fields{
		"job_id":     job.ID(),
		"job_type":   job.Type(),
		"project_id": job.ProjectID(),
	})
	log.Info("Started job")
	w.registry.Start(job.ID())

	// Jobs own their lifetime; stopping the pool waits for them.
	err := job.Execute(context.Background())
	w.registry.Finish(job.ID(), err)
	if err != nil {
		log.WithError(err).Error("Error processing job")
		return
	}
	log.Info("Finished job")
}

// Stop signals the worker to stop processing new jobs.
func (w Worker) Stop() {
	close(w.Quit)
}

// Dispatcher manages a pool of workers and dispatches jobs to them.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job // A pool of worker job channels
	JobQueue   chan Job      // A buffered channel for incoming jobs
	Workers    []Worker
	Wg         sync.WaitGroup // To wait for all workers to finish
	Quit       chan bool      // To signal the dispatcher to stop

	registry *Registry
	log      logrus.FieldLogger

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates a new Dispatcher. Jobs are tracked in registry.
func NewDispatcher(maxWorkers int, jobQueueSize int, registry *Registry, log logrus.FieldLogger) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		Quit:       make(chan bool),
		registry:   registry,
		log:        log,
	}
}

// Registry returns the registry that tracks this dispatcher's jobs.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Run starts the dispatcher and its workers.
func (d *Dispatcher) Run() {
	d.log.WithField("workers", d.MaxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(i, d.WorkerPool, &d.Wg, d.registry, d.log)
		d.Workers = append(d.Workers, worker)
		worker.Start()
	}

	go d.dispatch()
}

// dispatch hands each queued job to the next free worker. It waits for a
// worker before taking the next job, so the queue bound holds.
func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.JobQueue:
			select {
			case jobChannel := <-d.WorkerPool:
				select {
				case jobChannel <- job:
				case <-d.Quit:
					d.registry.Finish(job.ID(), ErrStopped)
					return
				}
			case <-d.Quit:
				d.registry.Finish(job.ID(), ErrStopped)
				return
			}
		case <-d.Quit:
			d.log.Debug("Dispatcher: Stopping dispatch loop")
			return
		}
	}
}

// SubmitJob adds a job to the job queue without blocking.
func (d *Dispatcher) SubmitJob(job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}

	d.registry.Add(job)
	select {
	case d.JobQueue <- job:
		d.log.WithField("job_id", job.ID()).Debug("Job submitted to queue")
		return nil
	default:
		d.registry.Remove(job.ID())
		d.log.WithField("job_id", job.ID()).Warn("Job queue full")
		return ErrQueueFull
	}
}

// Stop shuts down the dispatcher and waits for running jobs to finish.
// Jobs still queued are marked failed with ErrStopped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.log.Info("Dispatcher: Initiating shutdown")
	close(d.Quit)
	for _, worker := range d.Workers {
		worker.Stop()
	}
	d.Wg.Wait()

	for {
		select {
		case job := <-d.JobQueue:
			d.registry.Finish(job.ID(), ErrStopped)
		default:
			d.log.Info("Dispatcher: Shutdown complete")
			return
		}
	}
}

package systems

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

/** @brief Describes a type of job */
type JobType int

const (
	/**
	 * @brief A general job that does not have any specific requirements.
	 */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job, submitted by asset records through Go.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

func (t JobType) String() string {
	switch t {
	case JOB_TYPE_GENERAL:
		return "general"
	case JOB_TYPE_RESOURCE_LOAD:
		return "resource_load"
	default:
		return fmt.Sprintf("job_type(%d)", int(t))
	}
}

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Assigned by Submit when left empty. */
	ID   uuid.UUID
	Name string
	Type JobType
	/** @brief Invoked on a worker. Required. A panic counts as a failure. */
	Run func() error
	/** @brief Invoked after Run returned nil. Optional. */
	OnComplete func()
	/** @brief Invoked with the error of a failed Run. Optional. */
	OnFailure func(error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	completed atomic.Uint64
	failed    atomic.Uint64
}

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemClosed     = errors.New("job system is shut down")
	ErrNoJobEntryPoint     = errors.New("job has no entry point")
)

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()
	core.LogDebug("job system started with %d workers", numWorkers)

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if err := invoke(job.Run); err != nil {
		js.failed.Add(1)
		core.LogError("job %s (%s) failed: %s", job.Name, job.ID, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	js.completed.Add(1)
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn()
}

/**
 * @brief Shuts the job system down. Queued jobs still run; Shutdown
 * returns once every worker exited. Safe to call more than once.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	core.LogDebug("job system stopped: %d completed, %d failed", js.completed.Load(), js.failed.Load())
	return nil
}

func (js *JobSystem) prepare(jt *JobTask) error {
	if jt.Run == nil {
		return ErrNoJobEntryPoint
	}
	if jt.ID == uuid.Nil {
		jt.ID = uuid.New()
	}
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks
 * while the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) (uuid.UUID, error) {
	if err := js.prepare(&jt); err != nil {
		return uuid.Nil, err
	}

	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return uuid.Nil, ErrJobSystemClosed
	}
	js.jobQueue <- jt
	return jt.ID, nil
}

// TrySubmit is Submit without blocking. It reports false when the
// queue is full or the system is shut down.
func (js *JobSystem) TrySubmit(jt JobTask) (uuid.UUID, bool) {
	if err := js.prepare(&jt); err != nil {
		return uuid.Nil, false
	}

	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return uuid.Nil, false
	}
	select {
	case js.jobQueue <- jt:
		return jt.ID, true
	default:
		return uuid.Nil, false
	}
}

// Go runs fn as a resource load job. Once the system is shut down fn
// runs on its own goroutine instead, so callers waiting on it are never
// stranded.
func (js *JobSystem) Go(fn func()) {
	_, err := js.Submit(JobTask{
		Name: "asset load",
		Type: JOB_TYPE_RESOURCE_LOAD,
		Run: func() error {
			fn()
			return nil
		},
	})
	if err != nil {
		core.LogWarn("job system unavailable (%s), running load on a goroutine", err)
		go fn()
	}
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}

// Completed and Failed count finished jobs.
func (js *JobSystem) Completed() uint64 {
	return js.completed.Load()
}

func (js *JobSystem) Failed() uint64 {
	return js.failed.Load()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rolodex/internal/impex"
	"rolodex/internal/logging"
)

// Job phases, in order of occurrence.
const (
	PhaseStarting  = "starting"
	PhaseRunning   = "running"
	PhaseComplete  = "complete"
	PhaseFailed    = "failed"
	PhaseCancelled = "cancelled"
)

// Job kinds.
const (
	JobImport = "import"
	JobExport = "export"
)

// JobProgress is a snapshot of a background import or export.
type JobProgress struct {
	JobID     string
	Kind      string
	Path      string
	Phase     string
	TotalRows int
	Row       int
	Imported  int
	Skipped   int
	Error     string
}

// Percent returns progress as 0-100.
func (p JobProgress) Percent() int {
	switch p.Phase {
	case PhaseComplete:
		return 100
	case "", PhaseStarting:
		return 0
	}
	if p.TotalRows == 0 {
		return 0
	}
	return (p.Row * 100) / p.TotalRows
}

// JobResult holds the outcome of a finished job. Exactly one of Import
// and Export is set depending on the job kind, unless Err is non-nil.
type JobResult struct {
	Import *impex.Result
	Export *impex.ExportResult
	Err    error
}

type activeJob struct {
	ID         string
	Kind       string
	Path       string
	Cancel     context.CancelFunc
	Progress   JobProgress
	Result     *JobResult
	Done       chan struct{}
	Listeners  []chan JobProgress
	ListenerMu sync.Mutex
}

// StartImport begins an asynchronous import of the file at path.
// Returns the job ID immediately. Use SubscribeProgress to get updates
// and JobResult to wait for the outcome.
func (e *Engine) StartImport(ctx context.Context, path string) (string, error) {
	jobID := uuid.New().String()

	jobCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Import.Timeout)
	jobCtx = logging.WithJobID(jobCtx, jobID)

	job := &activeJob{
		ID:     jobID,
		Kind:   JobImport,
		Path:   path,
		Cancel: cancel,
		Progress: JobProgress{
			JobID: jobID,
			Kind:  JobImport,
			Path:  path,
			Phase: PhaseStarting,
		},
		Done: make(chan struct{}),
	}

	e.mu.Lock()
	e.jobs[jobID] = job
	e.mu.Unlock()

	go func() {
		defer cancel()
		defer e.recoverJob(job)

		log := logging.FromContext(jobCtx)
		log.Info("import started", "path", path)

		im := impex.NewImporter(e.store,
			impex.WithMaxFileSize(e.cfg.Import.MaxFileSize),
			impex.WithProgress(func(p impex.Progress) {
				job.setProgress(func(jp *JobProgress) {
					jp.Phase = PhaseRunning
					jp.TotalRows = p.TotalRows
					jp.Row = p.Row
					jp.Imported = p.Imported
					jp.Skipped = p.Skipped
				})
				job.notifyProgress()
			}),
		)

		res, err := im.ImportFile(jobCtx, path)
		if err != nil {
			log.Error("import failed", "path", path, "error", err)
			e.finishJob(job, &JobResult{Err: err}, failPhase(jobCtx))
			return
		}

		log.Info("import completed",
			"path", path,
			"imported", res.Imported,
			"skipped", res.Skipped,
			"duration", res.Duration,
		)
		job.setProgress(func(jp *JobProgress) {
			jp.TotalRows = res.TotalRows
			jp.Row = res.TotalRows
			jp.Imported = res.Imported
			jp.Skipped = res.Skipped
		})
		e.finishJob(job, &JobResult{Import: res}, PhaseComplete)
	}()

	return jobID, nil
}

// StartExport begins an asynchronous export to the file at path.
// Returns the job ID immediately.
func (e *Engine) StartExport(ctx context.Context, path string) (string, error) {
	jobID := uuid.New().String()

	jobCtx, cancel := context.WithCancel(context.Background())
	jobCtx = logging.WithJobID(jobCtx, jobID)

	job := &activeJob{
		ID:     jobID,
		Kind:   JobExport,
		Path:   path,
		Cancel: cancel,
		Progress: JobProgress{
			JobID: jobID,
			Kind:  JobExport,
			Path:  path,
			Phase: PhaseStarting,
		},
		Done: make(chan struct{}),
	}

	e.mu.Lock()
	e.jobs[jobID] = job
	e.mu.Unlock()

	go func() {
		defer cancel()
		defer e.recoverJob(job)

		log := logging.FromContext(jobCtx)
		log.Info("export started", "path", path)

		job.setProgress(func(jp *JobProgress) { jp.Phase = PhaseRunning })
		job.notifyProgress()

		res, err := impex.NewExporter(e.store).Export(jobCtx, path)
		if err != nil {
			log.Error("export failed", "path", path, "error", err)
			e.finishJob(job, &JobResult{Err: err}, failPhase(jobCtx))
			return
		}

		log.Info("export completed",
			"path", res.Path,
			"format", res.Format,
			"rows", res.Rows,
			"duration", res.Duration,
		)
		job.setProgress(func(jp *JobProgress) {
			jp.TotalRows = res.Rows
			jp.Row = res.Rows
		})
		e.finishJob(job, &JobResult{Export: res}, PhaseComplete)
	}()

	return jobID, nil
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the job completes.
func (e *Engine) SubscribeProgress(jobID string) (<-chan JobProgress, error) {
	job, err := e.job(jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan JobProgress, 10)

	job.ListenerMu.Lock()
	if job.Listeners == nil && job.Result != nil {
		// Job already finished; deliver the final snapshot and close.
		ch <- job.Progress
		close(ch)
	} else {
		job.Listeners = append(job.Listeners, ch)
		// Send current progress immediately
		select {
		case ch <- job.Progress:
		default:
		}
	}
	job.ListenerMu.Unlock()

	return ch, nil
}

// CancelJob cancels an in-progress job.
func (e *Engine) CancelJob(jobID string) error {
	job, err := e.job(jobID)
	if err != nil {
		return err
	}
	job.Cancel()
	return nil
}

// GetJobResult returns the result of a completed job.
// Blocks until the job completes if still in progress.
func (e *Engine) GetJobResult(jobID string) (*JobResult, error) {
	job, err := e.job(jobID)
	if err != nil {
		return nil, err
	}

	<-job.Done

	return job.Result, nil
}

// GetJobProgress returns the current progress without blocking.
func (e *Engine) GetJobProgress(jobID string) (JobProgress, error) {
	job, err := e.job(jobID)
	if err != nil {
		return JobProgress{}, err
	}

	job.ListenerMu.Lock()
	p := job.Progress
	job.ListenerMu.Unlock()
	return p, nil
}

func (e *Engine) job(jobID string) (*activeJob, error) {
	e.mu.RLock()
	job, ok := e.jobs[jobID]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

// finishJob records the result, pushes a final progress snapshot, and
// schedules the job entry for removal.
func (e *Engine) finishJob(job *activeJob, res *JobResult, phase string) {
	job.ListenerMu.Lock()
	job.Progress.Phase = phase
	if res.Err != nil {
		job.Progress.Error = res.Err.Error()
	}
	job.Result = res
	job.ListenerMu.Unlock()

	job.notifyProgress()
	job.closeListeners()
	close(job.Done)
	e.cleanup(job.ID, 5*time.Minute)
}

// recoverJob converts a panic in a job goroutine into a failed result
// so waiters are never left blocked.
func (e *Engine) recoverJob(job *activeJob) {
	r := recover()
	if r == nil {
		return
	}
	slog.Error("panic in job",
		"job_id", job.ID,
		"kind", job.Kind,
		"panic", r,
	)
	e.finishJob(job, &JobResult{Err: fmt.Errorf("internal error: %v", r)}, PhaseFailed)
}

// cleanup removes the job from tracking after a delay.
func (e *Engine) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.mu.Lock()
		delete(e.jobs, jobID)
		e.mu.Unlock()
	})
}

// failPhase distinguishes a cancelled job from a genuinely failed one.
// A timed-out job counts as failed, not cancelled.
func failPhase(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return PhaseCancelled
	}
	return PhaseFailed
}

// setProgress mutates the progress snapshot under the listener lock.
func (job *activeJob) setProgress(mutate func(*JobProgress)) {
	job.ListenerMu.Lock()
	mutate(&job.Progress)
	job.ListenerMu.Unlock()
}

// notifyProgress sends progress updates to all listeners.
func (job *activeJob) notifyProgress() {
	job.ListenerMu.Lock()
	defer job.ListenerMu.Unlock()

	for _, ch := range job.Listeners {
		select {
		case ch <- job.Progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (job *activeJob) closeListeners() {
	job.ListenerMu.Lock()
	defer job.ListenerMu.Unlock()

	for _, ch := range job.Listeners {
		close(ch)
	}
	job.Listeners = nil
}

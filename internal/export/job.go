package export

import (
	"errors"
	"fmt"
	"time"
)

// JobState is a step of the export protocol.
type JobState string

const (
	JobIdle      JobState = "idle"
	JobRequested JobState = "requested"
	JobRendering JobState = "rendering"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
)

// Stage names where a render was when it stopped.
type Stage string

const (
	StageAcquire  Stage = "acquire"
	StageNavigate Stage = "navigate"
	StageReady    Stage = "ready"
	StageCapture  Stage = "capture"
	StageEncode   Stage = "encode"
)

var ErrBadTransition = errors.New("invalid export job transition")

var transitions = map[JobState][]JobState{
	JobIdle:      {JobRequested},
	JobRequested: {JobRendering, JobFailed},
	JobRendering: {JobDone, JobFailed},
}

// Diagnostics describe a failed render.
type Diagnostics struct {
	SnapshotReceived bool   `json:"snapshotReceived"`
	Ready            bool   `json:"ready"`
	DocumentState    string `json:"documentState,omitempty"`
	Stage            Stage  `json:"stage,omitempty"`
}

// Cause classifies a failure from what the renderer got to see.
func (d Diagnostics) Cause() string {
	switch {
	case !d.SnapshotReceived:
		return "snapshot never arrived"
	case !d.Ready:
		return "render never completed"
	default:
		return "render completed but signal lost"
	}
}

// RenderError carries diagnostics out of an engine.
type RenderError struct {
	Diagnostics Diagnostics
	Err         error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed at %s (%s): %v", e.Diagnostics.Stage, e.Diagnostics.Cause(), e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Job records one export from request to outcome.
type Job struct {
	ID          string
	Format      Format
	State       JobState
	Diagnostics Diagnostics
	Err         error
	Started     time.Time
	Finished    time.Time
}

func newJob(id string, f Format) *Job {
	return &Job{ID: id, Format: f, State: JobIdle}
}

func (j *Job) transition(to JobState, now time.Time) error {
	for _, allowed := range transitions[j.State] {
		if allowed != to {
			continue
		}
		j.State = to
		switch to {
		case JobRequested:
			j.Started = now
		case JobDone, JobFailed:
			j.Finished = now
		}
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, j.State, to)
}

func (j *Job) fail(err error, now time.Time) {
	j.Err = err
	var rerr *RenderError
	if errors.As(err, &rerr) {
		j.Diagnostics = rerr.Diagnostics
	}
	_ = j.transition(JobFailed, now)
}

// Duration is how long the job ran, zero until it finished.
func (j *Job) Duration() time.Duration {
	if j.Finished.IsZero() {
		return 0
	}
	return j.Finished.Sub(j.Started)
}

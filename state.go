package forge

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/forge/adapter"
	"github.com/randalmurphal/forge/diff"
	"github.com/randalmurphal/forge/git"
	"github.com/randalmurphal/forge/testgen"
)

// StepStatus classifies one pipeline step.
type StepStatus string

// Step statuses.
const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// Run statuses.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
	RunAborted = "aborted"
)

// StepResult records the outcome of one pipeline step.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// RunState is the full workflow state threaded through the graph. Nodes
// receive it by value and return an updated copy.
type RunState struct {
	// Identification
	RunID     string    `json:"runId"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"startedAt"`

	// Options resolved before the run
	SkipTests bool `json:"skipTests,omitempty"`
	Update    bool `json:"update,omitempty"`

	// Repository snapshot, read fresh at the start of every run
	Repo git.RepositoryState `json:"repo"`

	// Pipeline data
	Changes    *diff.ChangeSet   `json:"changes,omitempty"`
	GenResults []testgen.Result  `json:"genResults,omitempty"`
	TestResult adapter.RunResult `json:"testResult,omitempty"`
	TestRan    bool              `json:"testRan,omitempty"`
	CommitSHA  string            `json:"commitSha,omitempty"`
	Unchanged  bool              `json:"unchanged,omitempty"`
	Pushed     bool              `json:"pushed,omitempty"`

	// Outcome
	Steps       []StepResult `json:"steps"`
	FinalStatus string       `json:"finalStatus"`
	FailedStep  string       `json:"failedStep,omitempty"`
}

// NewRunState creates the state for one command invocation.
func NewRunState(command string) RunState {
	id, err := nanoid.New()
	if err != nil {
		id = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return RunState{
		RunID:       id,
		Command:     command,
		StartedAt:   time.Now(),
		FinalStatus: RunRunning,
	}
}

// withStep appends a step result, marking the run failed when the step
// failed.
func (s RunState) withStep(name string, status StepStatus, detail string) RunState {
	s.Steps = append(s.Steps, StepResult{Name: name, Status: status, Detail: detail})
	if status == StepFailed {
		s.FinalStatus = RunFailed
		if s.FailedStep == "" {
			s.FailedStep = name
		}
	}
	return s
}

// Failed reports whether the run has reached the failed terminal state.
func (s RunState) Failed() bool {
	return s.FinalStatus == RunFailed
}

// Step returns the named step result, if recorded.
func (s RunState) Step(name string) (StepResult, bool) {
	for _, step := range s.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepResult{}, false
}

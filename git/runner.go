package git

import (
	"os/exec"
	"strings"
)

// CommandRunner executes external commands and returns their output.
// It exists so gateway logic can be tested without a real git binary.
type CommandRunner interface {
	// Run executes name with args in workDir and returns trimmed stdout.
	// A non-zero exit is returned as a *CommandError.
	Run(workDir, name string, args ...string) (string, error)
}

// CommandError wraps a failed command execution with its output.
type CommandError struct {
	Command string   // Binary that was run
	Args    []string // Arguments passed
	Output  string   // Combined stdout/stderr
	Err     error    // Underlying error (usually *exec.ExitError)
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns trimmed combined output.
func (r *ExecRunner) Run(workDir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, &CommandError{
			Command: name,
			Args:    args,
			Output:  output,
			Err:     err,
		}
	}
	return output, nil
}

// mockResponse is one scripted runner result.
type mockResponse struct {
	output string
	err    error
}

// SequentialMockRunner returns scripted responses in order and records
// every call. It is used to unit-test gateway logic without git.
type SequentialMockRunner struct {
	responses []mockResponse
	// Calls records each invocation as name followed by its args.
	Calls [][]string
}

// NewSequentialMockRunner creates an empty scripted runner.
func NewSequentialMockRunner() *SequentialMockRunner {
	return &SequentialMockRunner{}
}

// AddOutput appends a scripted response.
func (m *SequentialMockRunner) AddOutput(output string, err error) {
	m.responses = append(m.responses, mockResponse{output: output, err: err})
}

// Run pops the next scripted response. Running past the script returns
// empty output so over-eager callers fail loudly in assertions, not panics.
func (m *SequentialMockRunner) Run(workDir, name string, args ...string) (string, error) {
	call := append([]string{name}, args...)
	m.Calls = append(m.Calls, call)

	if len(m.responses) == 0 {
		return "", nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next.output, next.err
}

// CalledWith reports whether any recorded call contains all the given
// tokens in order. Helper for test assertions.
func (m *SequentialMockRunner) CalledWith(tokens ...string) bool {
	for _, call := range m.Calls {
		if containsSubsequence(call, tokens) {
			return true
		}
	}
	return false
}

func containsSubsequence(call, tokens []string) bool {
	i := 0
	for _, c := range call {
		if i < len(tokens) && c == tokens[i] {
			i++
		}
	}
	return i == len(tokens)
}

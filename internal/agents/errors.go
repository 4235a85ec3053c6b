package agents

import "fmt"

// MissingContextError means a stage was invoked without a required input
// key. No LLM call is made and the error is not retried.
type MissingContextError struct {
	Stage string
	Key   string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("stage %s invoked without required context key %q", e.Stage, e.Key)
}

// ExecutionError means an agent exhausted its retries. It carries the last
// error seen, which is what the operator needs to diagnose the failure.
type ExecutionError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

package domain

import "errors"

var (
	// ErrConfiguration indicates missing or invalid configuration, such as
	// an absent API key or an unreadable input outline. Callers map it to a
	// configuration exit code.
	ErrConfiguration = errors.New("configuration error")
	// ErrWorkflow indicates a failure during a deduction run, such as the
	// language model provider being unreachable after retries. Callers map
	// it to a workflow exit code.
	ErrWorkflow = errors.New("workflow error")
)

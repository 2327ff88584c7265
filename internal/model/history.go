package model

import (
	"fmt"
	"time"
)

// Execution is a record of a single command execution, kept for auditing.
type Execution struct {
	ID         string
	Command    string
	ExitCode   int
	WorkingDir string
	Duration   time.Duration
	CreatedAt  time.Time
}

// Validate validates the execution record.
func (e *Execution) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}
	if e.Command == "" {
		return fmt.Errorf("command is required: %w", ErrNotValid)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Round completed and the answer is usable
	ExitEscalated = 1 // Round completed but confidence requires a human
	ExitError     = 2 // Configuration or runtime error
)

// EscalationError indicates that the round ran successfully, but the
// selected answer's confidence calls for human review.
type EscalationError struct {
	Message string
}

func (e *EscalationError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var escalationErr *EscalationError
		if errors.As(err, &escalationErr) {
			os.Exit(ExitEscalated)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
